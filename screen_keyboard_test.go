package main

import "testing"

// pressKey finds a key by label and fires it directly.
func pressKey(t *testing.T, s *KeyboardScreen, label string) {
	t.Helper()
	for _, b := range s.Buttons() {
		if b.Label == label {
			b.OnPress()
			return
		}
	}
	t.Fatalf("no key labeled %q", label)
}

func TestKeyboardTyping(t *testing.T) {
	a := testApp()
	defer a.overlay.Shutdown()
	kb := newKeyboardScreen(a, "Enter SSID", nil)

	pressKey(t, kb, "h")
	pressKey(t, kb, "i")
	pressKey(t, kb, "Space")
	pressKey(t, kb, "x")
	if kb.inputText != "hi x" {
		t.Errorf("input = %q, want %q", kb.inputText, "hi x")
	}

	pressKey(t, kb, "<-")
	if kb.inputText != "hi " {
		t.Errorf("backspace left %q", kb.inputText)
	}

	// Backspace on empty input is safe.
	kb.inputText = ""
	pressKey(t, kb, "<-")
	if kb.inputText != "" {
		t.Errorf("backspace on empty input produced %q", kb.inputText)
	}
}

func TestKeyboardShiftAndSymbols(t *testing.T) {
	a := testApp()
	defer a.overlay.Shutdown()
	kb := newKeyboardScreen(a, "Enter PASSWORD", nil)

	pressKey(t, kb, "[^]")
	pressKey(t, kb, "A")
	if kb.inputText != "A" {
		t.Errorf("shifted key gave %q, want %q", kb.inputText, "A")
	}

	pressKey(t, kb, "[123]")
	pressKey(t, kb, "7")
	if kb.inputText != "A7" {
		t.Errorf("symbol key gave %q, want %q", kb.inputText, "A7")
	}

	// Toggling back restores the letter rows.
	pressKey(t, kb, "[ABC]")
	pressKey(t, kb, "[v]")
	pressKey(t, kb, "q")
	if kb.inputText != "A7q" {
		t.Errorf("after toggles input = %q, want %q", kb.inputText, "A7q")
	}
}

func TestKeyboardSubmitRestoresPreviousScreen(t *testing.T) {
	a := testApp()
	defer a.overlay.Shutdown()
	var events []string
	home := &fakeScreen{name: "home", events: &events}
	a.screens.SetScreen(home)

	var submitted string
	a.screens.rememberCurrent()
	kb := newKeyboardScreen(a, "Enter Hour", func(text string) { submitted = text })
	a.screens.SetScreen(kb)

	pressKey(t, kb, "[123]")
	pressKey(t, kb, "7")
	pressKey(t, kb, "Enter")

	if submitted != "7" {
		t.Errorf("submitted %q, want %q", submitted, "7")
	}
	if a.screens.Current() != home {
		t.Error("Enter should hand back to the remembered screen")
	}
}
