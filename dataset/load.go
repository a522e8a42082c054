package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

var (
	// ErrResourceUnavailable reports that a dataset could not be retrieved.
	ErrResourceUnavailable = eris.New("dataset: resource unavailable")
	// ErrNoUsableRows reports a dataset that parsed to zero valid rows.
	ErrNoUsableRows = eris.New("dataset: no usable rows")
)

// Origin records where loaded rows came from.
type Origin string

const (
	OriginPrimary  Origin = "primary"
	OriginFallback Origin = "fallback"
)

// Result holds the valid rows of one dataset.
type Result[T Row] struct {
	Rows    []T
	Dropped int
	Origin  Origin
	Source  string
	// Cause is set when fallback rows replaced a failed load.
	Cause error
}

// Decode reads a header row followed by records into T. Records that fail to
// decode or are not Valid are dropped and counted.
func Decode[T Row](t Table) (Result[T], error) {
	var res Result[T]

	header, err := t.Read()
	if err == io.EOF {
		return res, nil
	}
	if err != nil {
		return res, eris.Wrap(err, "dataset: read header")
	}
	header = append([]string(nil), header...)
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	dec, err := csvutil.NewDecoder(t, header...)
	if err != nil {
		return res, eris.Wrap(err, "dataset: new decoder")
	}

	for {
		var rec T
		err := dec.Decode(&rec)
		if err == io.EOF {
			break
		}
		if err != nil {
			if !rowError(err) {
				return res, eris.Wrap(err, "dataset: decode")
			}
			res.Dropped++
			continue
		}
		if n, ok := any(&rec).(normalizer); ok {
			n.normalize()
		}
		if !rec.Valid() {
			res.Dropped++
			continue
		}
		res.Rows = append(res.Rows, rec)
	}
	return res, nil
}

// rowError reports whether err concerns a single record, after which decoding
// can continue.
func rowError(err error) bool {
	var perr *csv.ParseError
	return errors.Is(err, csvutil.ErrFieldCount) || errors.As(err, &perr)
}

// Load reads src. When the source cannot be retrieved, or yields no usable
// rows, the fallback rows are returned instead if there are any; otherwise the
// error is returned wrapping ErrResourceUnavailable or ErrNoUsableRows.
func Load[T Row](ctx context.Context, src Source, fallback []T) (Result[T], error) {
	log := zap.L().With(zap.String("source", src.String()))

	res, err := load[T](ctx, src)
	if err == nil {
		log.Info("dataset loaded", zap.Int("rows", len(res.Rows)), zap.Int("dropped", res.Dropped))
		return res, nil
	}
	if len(fallback) == 0 {
		return res, err
	}

	log.Warn("dataset unavailable, using fallback", zap.Error(err), zap.Int("rows", len(fallback)))
	return Result[T]{
		Rows:   fallback,
		Origin: OriginFallback,
		Source: "embedded",
		Cause:  err,
	}, nil
}

func load[T Row](ctx context.Context, src Source) (Result[T], error) {
	t, err := src.Open(ctx)
	if err != nil {
		return Result[T]{}, eris.Wrapf(ErrResourceUnavailable, "%s: %v", src, err)
	}
	defer t.Close()

	res, err := Decode[T](t)
	if err != nil {
		return res, eris.Wrapf(ErrResourceUnavailable, "%s: %v", src, err)
	}
	res.Origin = OriginPrimary
	res.Source = src.String()
	if len(res.Rows) == 0 {
		return res, eris.Wrapf(ErrNoUsableRows, "%s: %d rows dropped", src, res.Dropped)
	}
	return res, nil
}
