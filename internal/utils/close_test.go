package utils

import (
	"errors"
	"strings"
	"testing"
)

type closer struct{ err error }

func (c closer) Close() error { return c.err }

func TestCloseInto(t *testing.T) {
	var err error
	CloseInto(&err, closer{}, "rows")
	if err != nil {
		t.Fatalf("clean close set err = %v", err)
	}

	boom := errors.New("boom")
	CloseInto(&err, closer{err: boom}, "rows")
	if !errors.Is(err, boom) || !strings.Contains(err.Error(), "closing rows") {
		t.Fatalf("err = %v", err)
	}

	scan := errors.New("scan failed")
	err = scan
	CloseInto(&err, closer{err: boom}, "rows")
	if !errors.Is(err, scan) || !errors.Is(err, boom) {
		t.Fatalf("joined err = %v", err)
	}
}
