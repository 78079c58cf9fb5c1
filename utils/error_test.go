package utils_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/threadline/store_backend/utils"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want utils.ErrorKind
	}{
		{utils.NotFoundError("missing"), utils.ErrorKindNotFound},
		{utils.InsufficientStockError("short"), utils.ErrorKindInsufficientStock},
		{utils.InvalidStateError("terminal"), utils.ErrorKindInvalidState},
		{utils.ValidationError("bad input"), utils.ErrorKindValidation},
		{errors.New("plain"), ""},
		{nil, ""},
	}
	for _, tc := range cases {
		if got := utils.KindOf(tc.err); got != tc.want {
			t.Errorf("KindOf(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestKindOfWrapped(t *testing.T) {
	wrapped := fmt.Errorf("outer context: %w", utils.InsufficientStockError("short"))
	if got := utils.KindOf(wrapped); got != utils.ErrorKindInsufficientStock {
		t.Fatalf("KindOf through wrap = %q", got)
	}
}

func TestErrorRecordNotFoundIsNotFound(t *testing.T) {
	if utils.KindOf(utils.ErrorRecordNotFound) != utils.ErrorKindNotFound {
		t.Fatal("ErrorRecordNotFound must carry the not-found kind")
	}
}
