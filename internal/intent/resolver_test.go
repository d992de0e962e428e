package intent

import "testing"

func TestExtractColonSeparated(t *testing.T) {
	name, rest := Extract("Genesis: what's the weather?")
	if name != "Genesis" || rest != "what's the weather?" {
		t.Fatalf("got (%q, %q)", name, rest)
	}
}

func TestExtractFuzzyVariant(t *testing.T) {
	name, rest := Extract("Lisa, tell me a joke")
	if name != "Lissa" {
		t.Fatalf("expected fuzzy match to Lissa, got %q (rest=%q)", name, rest)
	}
}

func TestExtractAtPrefix(t *testing.T) {
	name, rest := Extract("@Lissa how are you")
	if name != "Lissa" || rest != "how are you" {
		t.Fatalf("got (%q, %q)", name, rest)
	}
}

func TestExtractFillerWordScan(t *testing.T) {
	name, rest := Extract("Hey Lissa what are you doing")
	if name != "Lissa" || rest != "what are you doing" {
		t.Fatalf("got (%q, %q)", name, rest)
	}
}

func TestExtractNoMatch(t *testing.T) {
	name, rest := Extract("hello there")
	if name != "" || rest != "hello there" {
		t.Fatalf("expected no extraction, got (%q, %q)", name, rest)
	}
}

func TestExtractStopsOnNonFillerMiss(t *testing.T) {
	// "banana" is neither a filler word nor a companion name, so the
	// scan must stop there rather than continuing past it.
	name, _ := Extract("banana Lissa hello")
	if name != "" {
		t.Fatalf("expected scan to stop at non-filler miss, got %q", name)
	}
}

func TestExtractIdempotentOnCleanedTail(t *testing.T) {
	// spec.md §8 round-trip law: re-extracting from the cleaned remainder
	// finds no further name.
	_, rest := Extract("Lisa, tell me a joke")
	name2, rest2 := Extract(rest)
	if name2 != "" || rest2 != rest {
		t.Fatalf("expected idempotence, got (%q, %q) from %q", name2, rest2, rest)
	}
}

func TestStickyAddressingCarriesAcrossMessages(t *testing.T) {
	sticky := NewSticky("Genesis")
	active, _ := sticky.Resolve("Genesis: what's the weather?")
	if active != "Genesis" {
		t.Fatalf("expected Genesis, got %q", active)
	}
	active2, cleaned2 := sticky.Resolve("and tomorrow?")
	if active2 != "Genesis" || cleaned2 != "and tomorrow?" {
		t.Fatalf("expected sticky Genesis with unmodified text, got (%q, %q)", active2, cleaned2)
	}
}
