// cmd/samplegen generates the downloadable recipient template spreadsheet
// (template.xlsx) with the headers the campaign upload expects.
package main

import (
	"flag"
	"log"

	"github.com/xuri/excelize/v2"
)

func main() {
	out := flag.String("out", "template.xlsx", "output path for the template spreadsheet")
	flag.Parse()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	header := []string{"Email", "NAME", "AMOUNT", "document_file"}
	for i, col := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			log.Fatal(err)
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			log.Fatal(err)
		}
	}

	example := []string{"jane@example.com", "Jane", "500", ""}
	for i, val := range example {
		cell, err := excelize.CoordinatesToCellName(i+1, 2)
		if err != nil {
			log.Fatal(err)
		}
		if err := f.SetCellValue(sheet, cell, val); err != nil {
			log.Fatal(err)
		}
	}

	if err := f.SaveAs(*out); err != nil {
		log.Fatal("failed to write template:", err)
	}
	log.Println("✅ Wrote", *out)
}
