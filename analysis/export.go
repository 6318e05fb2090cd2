package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/RyanBlaney/sonido-pore/algorithms/common"
)

// WriteSpectraCSV writes one frequency column followed by one power column per sweep.
// Every spectrum must share the same frequency grid.
func WriteSpectraCSV(w io.Writer, spectra []SpectrumReport) error {
	const op = "analysis.WriteSpectraCSV"

	if len(spectra) == 0 || spectra[0].PSD == nil {
		return common.InvalidInput(op, "no spectra to write")
	}
	freqs := spectra[0].PSD.Frequencies
	for _, s := range spectra[1:] {
		if s.PSD == nil || len(s.PSD.Frequencies) != len(freqs) {
			return common.InvalidInput(op, "sweep %d spectrum does not share the frequency grid", s.Sweep)
		}
	}

	cw := csv.NewWriter(w)
	header := make([]string, 0, len(spectra)+1)
	header = append(header, "frequency")
	for _, s := range spectra {
		header = append(header, s.Name)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write spectrum header: %w", err)
	}

	record := make([]string, len(header))
	for i, f := range freqs {
		record[0] = strconv.FormatFloat(f, 'g', -1, 64)
		for j, s := range spectra {
			record[j+1] = strconv.FormatFloat(s.PSD.Power[i], 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write spectrum row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush spectra: %w", err)
	}
	return nil
}
