package errors

import (
	stderrors "errors"
	"net/http"
	"testing"
)

func TestAppErrorFormat(t *testing.T) {
	e := New(ErrCodeAnnotationInvalidRange, "start exceeds end")
	want := "[ANN_001] start exceeds end"
	if e.Error() != want {
		t.Errorf("expected %q, got %q", want, e.Error())
	}

	e = e.WithDetail("start=12 end=4")
	want = "[ANN_001] start exceeds end: start=12 end=4"
	if e.Error() != want {
		t.Errorf("expected %q, got %q", want, e.Error())
	}
}

func TestWrapPreservesChain(t *testing.T) {
	root := stderrors.New("connection refused")
	wrapped := Wrap(root, ErrCodeStoreUnavailable, "load failed")

	if !stderrors.Is(wrapped, root) {
		t.Error("expected wrapped error to match root via errors.Is")
	}
	if !IsCode(wrapped, ErrCodeStoreUnavailable) {
		t.Error("expected ErrCodeStoreUnavailable in chain")
	}
	if IsCode(wrapped, ErrCodeRemoteStatus) {
		t.Error("did not expect ErrCodeRemoteStatus in chain")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, ErrCodeInternal, "noop") != nil {
		t.Error("wrapping nil must return nil")
	}
}

func TestWrapUnknownPreservesCode(t *testing.T) {
	inner := New(ErrCodeRemoteMalformed, "bad json")
	outer := Wrap(inner, ErrCodeUnknown, "fact check failed")
	if outer.Code != ErrCodeRemoteMalformed {
		t.Errorf("expected inner code to survive, got %s", outer.Code)
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(New(ErrCodeRemoteStatus, "502")) {
		t.Error("remote status errors are retryable")
	}
	if !IsRetryable(Wrap(New(ErrCodeRemoteMalformed, "bad json"), ErrCodeInternal, "wrapped")) {
		t.Error("retryable code anywhere in chain counts")
	}
	if IsRetryable(New(ErrCodeAnnotationInvalidRange, "bad range")) {
		t.Error("range errors are not retryable")
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[ErrorCode]int{
		ErrCodeAnnotationInvalidRange: http.StatusBadRequest,
		ErrCodeRemoteStatus:           http.StatusBadGateway,
		ErrCodeDocumentNotFound:       http.StatusNotFound,
		ErrCodePipelineStale:          http.StatusConflict,
		ErrorCode("NOPE_999"):         http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := HTTPStatusForCode(code); got != want {
			t.Errorf("%s: expected %d, got %d", code, want, got)
		}
	}
}

func TestGetCode(t *testing.T) {
	if GetCode(nil) != CodeOK {
		t.Error("nil error must map to CodeOK")
	}
	if GetCode(stderrors.New("plain")) != ErrCodeUnknown {
		t.Error("plain error must map to ErrCodeUnknown")
	}
	if GetCode(NotFound("gone")) != ErrCodeNotFound {
		t.Error("expected ErrCodeNotFound")
	}
}
