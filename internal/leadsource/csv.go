package leadsource

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
)

// decodeCSV reads a header-led CSV file. Column names are matched
// case-insensitively; unknown columns are ignored.
func decodeCSV(ctx context.Context, r io.Reader, emit func(rawLead)) error {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return eris.Wrap(err, "csv: read header")
	}

	dec, err := csvutil.NewDecoder(cr, canonicalHeader(header)...)
	if err != nil {
		return eris.Wrap(err, "csv: create decoder")
	}

	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "csv: context cancelled")
		}

		var raw rawLead
		if err := dec.Decode(&raw); err == io.EOF {
			return nil
		} else if err != nil {
			return eris.Wrapf(err, "csv: decode line %d", line)
		}
		emit(raw)
	}
}
