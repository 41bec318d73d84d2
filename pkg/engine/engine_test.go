package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/google/go-cmp/cmp"
	"github.com/praetorian-inc/regext/pkg/types"
)

func mustCompile(t *testing.T, source string, opts Options) Matcher {
	t.Helper()
	m, err := Compile(source, opts)
	if err != nil {
		t.Fatalf("Compile(%q) failed: %v", source, err)
	}
	return m
}

func TestParseDialect(t *testing.T) {
	tests := []struct {
		in      string
		want    Dialect
		wantErr bool
	}{
		{"", ECMAScript, false},
		{"ECMAScript", ECMAScript, false},
		{"js", ECMAScript, false},
		{"re2", RE2, false},
		{" Perl ", Perl, false},
		{"net", Perl, false},
		{"pcre", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDialect(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDialect(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseDialect(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDialect_String(t *testing.T) {
	if got := RE2.String(); got != "re2" {
		t.Errorf("RE2.String() = %q", got)
	}
	if got := Dialect(42).String(); got != "Dialect(42)" {
		t.Errorf("Dialect(42).String() = %q", got)
	}
}

func TestOptions_RegexpOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want regexp2.RegexOptions
	}{
		{"default", Options{}, regexp2.ECMAScript},
		{"unicode", Options{Unicode: true}, regexp2.ECMAScript | regexp2.Unicode},
		{"re2 ignores unicode", Options{Dialect: RE2, Unicode: true}, regexp2.RE2},
		{"perl all", Options{Dialect: Perl, IgnoreCase: true, Multiline: true, DotAll: true},
			regexp2.IgnoreCase | regexp2.Multiline | regexp2.Singleline},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opts.regexpOptions(); got != tt.want {
				t.Errorf("regexpOptions() = %#x, want %#x", got, tt.want)
			}
		})
	}
}

func TestCompile_SyntaxError(t *testing.T) {
	if _, err := Compile("[", Options{}); err == nil {
		t.Fatal("expected syntax error for unterminated class")
	}
	if _, err := Compile("a(b", Options{}); err == nil {
		t.Fatal("expected syntax error for unbalanced paren")
	}
}

func TestCompile_MatchTimeout(t *testing.T) {
	m := mustCompile(t, "a", Options{MatchTimeout: time.Second})
	rm := m.(*regexpMatcher)
	if rm.re.MatchTimeout != time.Second {
		t.Errorf("MatchTimeout = %v, want 1s", rm.re.MatchTimeout)
	}
}

func TestMatchAt_Basic(t *testing.T) {
	m := mustCompile(t, `a(b)c`, Options{})
	s := NewSubject("xx abc abc")

	got, err := m.MatchAt(s, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	want := &types.Match{
		Text:   "abc",
		Index:  3,
		End:    6,
		Input:  "xx abc abc",
		Groups: []types.Group{{Text: "b", Index: 4, Matched: true}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MatchAt mismatch (-want +got):\n%s", diff)
	}

	got, err = m.MatchAt(s, 4, false)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Index != 7 {
		t.Fatalf("MatchAt(4) = %+v, want match at 7", got)
	}

	got, err = m.MatchAt(s, 8, false)
	if err != nil || got != nil {
		t.Fatalf("MatchAt(8) = %+v, %v; want no match", got, err)
	}
}

func TestMatchAt_Sticky(t *testing.T) {
	m := mustCompile(t, `\d`, Options{})
	s := NewSubject("1a2")

	if got, _ := m.MatchAt(s, 1, true); got != nil {
		t.Errorf("sticky at 1 = %+v, want nil", got)
	}
	if got, _ := m.MatchAt(s, 1, false); got == nil || got.Index != 2 {
		t.Errorf("non-sticky at 1 = %+v, want match at 2", got)
	}
	if got, _ := m.MatchAt(s, 2, true); got == nil || got.Text != "2" {
		t.Errorf("sticky at 2 = %+v, want \"2\"", got)
	}
}

func TestMatchAt_Bounds(t *testing.T) {
	m := mustCompile(t, `x*`, Options{})
	s := NewSubject("ab")

	got, err := m.MatchAt(s, 2, false)
	if err != nil || got == nil || !got.Empty() || got.Index != 2 {
		t.Fatalf("MatchAt(end) = %+v, %v; want empty match at 2", got, err)
	}
	if got, _ := m.MatchAt(s, 3, false); got != nil {
		t.Errorf("MatchAt(past end) = %+v, want nil", got)
	}
	if got, _ := m.MatchAt(s, -5, false); got == nil || got.Index != 0 {
		t.Errorf("MatchAt(negative) = %+v, want match at 0", got)
	}
}

func TestMatchAt_LookbehindSeesWholeSubject(t *testing.T) {
	m := mustCompile(t, `(?<=\$)\d+`, Options{})
	s := NewSubject("$12 $34")

	got, err := m.MatchAt(s, 4, false)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Text != "34" || got.Index != 5 {
		t.Fatalf("MatchAt = %+v, want \"34\" at 5", got)
	}
}

func TestMatchAt_AnchorsUseWholeSubject(t *testing.T) {
	m := mustCompile(t, `^b`, Options{})
	if got, _ := m.MatchAt(NewSubject("ab"), 1, false); got != nil {
		t.Errorf("^ matched mid-subject: %+v", got)
	}

	ml := mustCompile(t, `^\d+`, Options{Multiline: true})
	got, _ := ml.MatchAt(NewSubject("12\n34"), 1, false)
	if got == nil || got.Text != "34" {
		t.Errorf("multiline ^ = %+v, want \"34\"", got)
	}
}

func TestMatchAt_MultibyteOffsets(t *testing.T) {
	m := mustCompile(t, `(é+)(x)?`, Options{})
	s := NewSubject("aééb")

	got, err := m.MatchAt(s, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	want := &types.Match{
		Text:  "éé",
		Index: 1,
		End:   5,
		Input: "aééb",
		Groups: []types.Group{
			{Text: "éé", Index: 1, Matched: true},
			{Index: -1},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MatchAt mismatch (-want +got):\n%s", diff)
	}
}

func TestMatchAt_CaseAndDotAll(t *testing.T) {
	ci := mustCompile(t, `abc`, Options{IgnoreCase: true})
	if got, _ := ci.MatchAt(NewSubject("xABC"), 0, false); got == nil || got.Text != "ABC" {
		t.Errorf("ignore case = %+v", got)
	}

	dot := mustCompile(t, `a.b`, Options{})
	if got, _ := dot.MatchAt(NewSubject("a\nb"), 0, false); got != nil {
		t.Errorf("dot matched newline without DotAll: %+v", got)
	}
	dotAll := mustCompile(t, `a.b`, Options{DotAll: true})
	if got, _ := dotAll.MatchAt(NewSubject("a\nb"), 0, false); got == nil {
		t.Error("DotAll did not match newline")
	}
}

func TestMatchAt_Unicode(t *testing.T) {
	m := mustCompile(t, `\u{1F600}`, Options{Unicode: true})
	got, err := m.MatchAt(NewSubject("hi 😀"), 0, false)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Text != "😀" || got.Index != 3 {
		t.Fatalf("MatchAt = %+v, want emoji at 3", got)
	}
}

func TestMatchAt_Timeout(t *testing.T) {
	m := mustCompile(t, `(a+)+$`, Options{MatchTimeout: time.Millisecond})
	subject := NewSubject(strings.Repeat("a", 40) + "!")

	if _, err := m.MatchAt(subject, 0, false); err == nil {
		t.Fatal("expected a timeout error from catastrophic backtracking")
	}
}
