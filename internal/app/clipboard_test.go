package app

import (
	"errors"
	"testing"
)

func TestCopyTextToClipboard(t *testing.T) {
	origSystem := clipboardWriteAll
	origOSC := clipboardWriteOSC52
	t.Cleanup(func() {
		clipboardWriteAll = origSystem
		clipboardWriteOSC52 = origOSC
	})

	t.Run("system clipboard preferred", func(t *testing.T) {
		var got string
		clipboardWriteAll = func(text string) error {
			got = text
			return nil
		}
		clipboardWriteOSC52 = func(string) error {
			t.Fatal("osc52 used despite working system clipboard")
			return nil
		}
		method, err := copyTextToClipboard("ses_1")
		if err != nil || method != clipboardMethodSystem {
			t.Fatalf("method=%v err=%v", method, err)
		}
		if got != "ses_1" {
			t.Fatalf("copied %q, want ses_1", got)
		}
	})

	t.Run("falls back to osc52", func(t *testing.T) {
		clipboardWriteAll = func(string) error { return errors.New("no display") }
		var got string
		clipboardWriteOSC52 = func(text string) error {
			got = text
			return nil
		}
		method, err := copyTextToClipboard("ses_2")
		if err != nil || method != clipboardMethodOSC52 {
			t.Fatalf("method=%v err=%v", method, err)
		}
		if got != "ses_2" {
			t.Fatalf("copied %q, want ses_2", got)
		}
	})

	t.Run("both failing reports both errors", func(t *testing.T) {
		sysErr := errors.New("no display")
		oscErr := errors.New("tty closed")
		clipboardWriteAll = func(string) error { return sysErr }
		clipboardWriteOSC52 = func(string) error { return oscErr }
		_, err := copyTextToClipboard("ses_3")
		if !errors.Is(err, sysErr) || !errors.Is(err, oscErr) {
			t.Fatalf("err = %v, want both causes", err)
		}
	})
}
