package item

import (
	"testing"

	"starteritems.gg/internal/nbt"
)

func TestNormalizeID(t *testing.T) {
	ok := map[string]string{
		"diamond":               "minecraft:diamond",
		"minecraft:diamond":     "minecraft:diamond",
		"mymod:magic_wand":      "mymod:magic_wand",
		" minecraft:iron_sword": "minecraft:iron_sword",
	}
	for in, want := range ok {
		got, err := NormalizeID(in)
		if err != nil || got != want {
			t.Fatalf("NormalizeID(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	for _, in := range []string{"", "a:b:c", ":diamond", "minecraft:"} {
		if _, err := NormalizeID(in); err == nil {
			t.Fatalf("NormalizeID(%q) expected error", in)
		}
	}
}

func TestCopyIsIndependent(t *testing.T) {
	tag, err := nbt.Parse(`{Damage:10}`)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := Stack{Item: "minecraft:iron_sword", Count: 1, NBT: tag}
	c := tmpl.Copy()
	c.Count = 0
	if tmpl.Count != 1 {
		t.Fatalf("template count mutated")
	}
	same, _ := nbt.Parse(`{ Damage : 10 }`)
	if !tmpl.CanMerge(Stack{Item: "minecraft:iron_sword", NBT: same}) {
		t.Fatalf("expected merge with equal tag")
	}
	if tmpl.CanMerge(Stack{Item: "minecraft:iron_sword"}) {
		t.Fatalf("expected no merge without tag")
	}
}
