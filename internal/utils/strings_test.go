package utils

import "testing"

func TestSplitListDropsBlanks(t *testing.T) {
	got := SplitList(" a, ;b\n c ,")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("unexpected split result: %#v", got)
	}
}

func TestFoldKey(t *testing.T) {
	if got := FoldKey("  John   DOE "); got != "john doe" {
		t.Fatalf("FoldKey = %q", got)
	}
}

func TestMaskToken(t *testing.T) {
	if got := MaskToken("abcdefgh"); got != "****efgh" {
		t.Fatalf("MaskToken = %q", got)
	}
	if got := MaskToken("abc"); got != "***" {
		t.Fatalf("MaskToken short = %q", got)
	}
}
