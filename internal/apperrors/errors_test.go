package apperrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsKind(t *testing.T) {
	err := Conflict("資源競爭")

	if !IsKind(err, KindConflict) {
		t.Error("expected KindConflict to match")
	}
	if IsKind(err, KindValidation) {
		t.Error("KindValidation should not match a conflict error")
	}
	if IsKind(errors.New("plain"), KindConflict) {
		t.Error("plain error should not match any kind")
	}
	if IsKind(nil, KindConflict) {
		t.Error("nil should not match any kind")
	}
}

func TestIsKindWrapped(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("handling request: %w", Persistence("寫入失敗", cause))

	if !IsKind(err, KindPersistence) {
		t.Error("expected KindPersistence through the wrap chain")
	}
	if !errors.Is(err, cause) {
		t.Error("expected the original cause to stay reachable")
	}
}

func TestErrorMessage(t *testing.T) {
	err := Validation("輸入不合法")
	if err.Error() != "validation: 輸入不合法" {
		t.Errorf("unexpected error string: %s", err.Error())
	}

	wrapped := Persistence("寫入失敗", errors.New("timeout"))
	if wrapped.Error() != "persistence: 寫入失敗: timeout" {
		t.Errorf("unexpected error string: %s", wrapped.Error())
	}
}
