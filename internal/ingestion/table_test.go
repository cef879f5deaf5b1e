package ingestion

import (
	"errors"
	"testing"
)

func TestParseCSVStripsByteOrderMark(t *testing.T) {
	payload := append([]byte{0xEF, 0xBB, 0xBF}, []byte("CIN,COMPANY_NAME\nU72200MH2020PTC111111,ONE LTD\n")...)

	table, err := ParseFile("extract.csv", payload)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if table.Headers[0] != "CIN" {
		t.Errorf("first header = %q, want CIN", table.Headers[0])
	}
	if len(table.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(table.Rows))
	}
}

func TestParseCSVSkipsBlankRowsAndPadsShortOnes(t *testing.T) {
	payload := []byte("\nCIN,COMPANY_NAME,STATE\nU72200MH2020PTC111111,ONE LTD\n\nU72200GJ2021PTC222222,TWO LTD,Gujarat\n")

	table, err := ParseFile("extract.csv", payload)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(table.Headers) != 3 {
		t.Fatalf("headers = %v", table.Headers)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(table.Rows))
	}
	if got := len(table.Rows[0]); got != 3 {
		t.Errorf("short row padded to %d cells, want 3", got)
	}
	if table.Rows[0][2] != "" {
		t.Errorf("padding cell = %q, want empty", table.Rows[0][2])
	}
}

func TestParseFileRejectsUnknownExtension(t *testing.T) {
	_, err := ParseFile("extract.parquet", []byte("x"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestParseFileRejectsEmptyCSV(t *testing.T) {
	if _, err := ParseFile("extract.csv", []byte("")); err == nil {
		t.Fatal("expected error for empty file")
	}
}
