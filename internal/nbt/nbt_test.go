package nbt_test

import (
	"errors"
	"strings"
	"testing"

	"starteritems.gg/internal/nbt"
)

func TestParse_ScalarTypes(t *testing.T) {
	c, err := nbt.Parse(`{Damage:10, b:1b, s:2s, l:3L, f:1.5f, d:2.5d, name:"Iron Sword"}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := map[string]any{
		"Damage": int32(10),
		"b":      int8(1),
		"s":      int16(2),
		"l":      int64(3),
		"f":      float32(1.5),
		"d":      2.5,
		"name":   "Iron Sword",
	}
	for k, w := range want {
		got, ok := c.Get(k)
		if !ok {
			t.Fatalf("missing key %q", k)
		}
		if got != w {
			t.Fatalf("%s = %#v (%T), want %#v (%T)", k, got, got, w, w)
		}
	}
	if c.Len() != len(want) {
		t.Fatalf("Len = %d, want %d", c.Len(), len(want))
	}
}

func TestParse_Nested(t *testing.T) {
	c, err := nbt.Parse(`{display:{Name:"Blade"},Enchantments:[{id:"minecraft:sharpness",lvl:5s}],Ints:[I;1,2,3]}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	display, _ := c.Get("display")
	dm, ok := display.(map[string]any)
	if !ok || dm["Name"] != "Blade" {
		t.Fatalf("display = %#v", display)
	}
	ench, _ := c.Get("Enchantments")
	if list, ok := ench.([]any); !ok || len(list) != 1 {
		t.Fatalf("Enchantments = %#v", ench)
	}
}

func TestParse_Errors(t *testing.T) {
	for _, in := range []string{
		``,
		`Damage:10`,
		`{Damage:10`,
		`{Damage 10}`,
		`{a:"open}`,
	} {
		_, err := nbt.Parse(in)
		if err == nil {
			t.Fatalf("Parse(%q) expected error", in)
		}
		var se *nbt.SyntaxError
		if !errors.As(err, &se) {
			t.Fatalf("Parse(%q) error %T, want *SyntaxError", in, err)
		}
	}
}

func TestString_RoundTripKeepsOrder(t *testing.T) {
	c, err := nbt.Parse(`{zeta:10,display:{Name:"My blade"},Ids:[I;1,2],alpha:1b}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out := c.String()
	if strings.Index(out, "zeta") > strings.Index(out, "alpha") {
		t.Fatalf("key order lost: %s", out)
	}
	back, err := nbt.Parse(out)
	if err != nil {
		t.Fatalf("re-Parse %s: %v", out, err)
	}
	if !back.Equal(c) {
		t.Fatalf("round trip not equal: %s vs %s", back, c)
	}
	if back.String() != out {
		t.Fatalf("String not stable: %s vs %s", back, out)
	}
}

func TestEqual_IgnoresKeyOrder(t *testing.T) {
	a, _ := nbt.Parse(`{x:1,y:{z:2b}}`)
	b, _ := nbt.Parse(`{y:{z:2b},x:1}`)
	if !a.Equal(b) {
		t.Fatalf("expected equal")
	}
	c, _ := nbt.Parse(`{y:{z:2},x:1}`)
	if a.Equal(c) {
		t.Fatalf("expected byte vs int to differ")
	}
	empty, _ := nbt.Parse(`{}`)
	var nilC *nbt.Compound
	if !nilC.Equal(empty) || nilC.Equal(a) {
		t.Fatalf("nil compound should equal only an empty compound")
	}
}
