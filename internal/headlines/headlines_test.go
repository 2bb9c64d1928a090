package headlines

import (
	"testing"
	"time"

	"github.com/Zachkp/portfolio/internal/typewriter"
)

func TestDefaultsAreValid(t *testing.T) {
	sets := Defaults()
	for _, name := range []string{"home", "projects", "experience", "contact"} {
		texts, ok := sets[name]
		if !ok {
			t.Fatalf("missing default set %q", name)
		}
		cfg := typewriter.Config{
			Texts:         texts,
			TypingSpeed:   time.Millisecond,
			DeletingSpeed: time.Millisecond,
			Loop:          true,
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("set %q: %v", name, err)
		}
	}
}

func TestDefaultsReturnsCopy(t *testing.T) {
	a := Defaults()
	a["home"][0] = "changed"
	delete(a, "contact")

	b := Defaults()
	if b["home"][0] == "changed" {
		t.Fatal("Defaults shares its slices")
	}
	if _, ok := b["contact"]; !ok {
		t.Fatal("Defaults shares its map")
	}
}
