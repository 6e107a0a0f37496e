package prefabs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestVec3SpecForms(t *testing.T) {
	cases := []struct {
		name    string
		src     string
		want    Vec3Spec
		wantErr bool
	}{
		{"sequence", "v: [1, 2.5, -3]", Vec3Spec{1, 2.5, -3}, false},
		{"mapping", "v: {x: 1, z: 4}", Vec3Spec{1, 0, 4}, false},
		{"short_sequence", "v: [1, 2]", Vec3Spec{}, true},
		{"scalar", "v: 3", Vec3Spec{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out struct {
				V Vec3Spec `yaml:"v"`
			}
			err := yaml.Unmarshal([]byte(tc.src), &out)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if out.V != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, out.V)
			}
		})
	}
}

func TestVec3SpecMarshalsFlow(t *testing.T) {
	data, err := yaml.Marshal(struct {
		V Vec3Spec `yaml:"v"`
	}{V: Vec3Spec{0, 0, 2.5}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "v: [0, 0, 2.5]" {
		t.Fatalf("unexpected yaml %q", got)
	}
}

func TestLoadArenaSpec(t *testing.T) {
	spec, err := LoadArenaSpec("arena.yaml")
	if err != nil {
		t.Fatalf("load arena: %v", err)
	}
	if len(spec.Agents) != 2 || len(spec.Targets) != 2 {
		t.Fatalf("unexpected arena contents: %d agents, %d targets", len(spec.Agents), len(spec.Targets))
	}
	if spec.Agents[0].Position != (Vec3Spec{4, 0, 4}) {
		t.Fatalf("unexpected agent position %v", spec.Agents[0].Position)
	}
	if len(spec.Nav.Obstacles) == 0 {
		t.Fatalf("expected obstacles")
	}
}

func TestValidateArena(t *testing.T) {
	base := func() ArenaSpec {
		return ArenaSpec{
			TickRate: 60,
			Nav:      NavSpec{CellSize: 1, Width: 10, Depth: 10},
			Agents:   []AgentSpec{{Name: "a", Catalog: "c.yaml", MaxWarpMultiplier: 2}},
			Targets:  []TargetSpec{{Name: "t"}},
		}
	}
	cases := []struct {
		name   string
		mutate func(*ArenaSpec)
		ok     bool
	}{
		{"valid", func(*ArenaSpec) {}, true},
		{"no_tick_rate", func(s *ArenaSpec) { s.TickRate = 0 }, false},
		{"no_cell_size", func(s *ArenaSpec) { s.Nav.CellSize = 0 }, false},
		{"duplicate_name", func(s *ArenaSpec) { s.Targets[0].Name = "a" }, false},
		{"missing_catalog", func(s *ArenaSpec) { s.Agents[0].Catalog = "" }, false},
		{"multiplier_below_one", func(s *ArenaSpec) { s.Agents[0].MaxWarpMultiplier = 0.5 }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := base()
			tc.mutate(&s)
			err := validateArena(&s)
			if (err == nil) != tc.ok {
				t.Fatalf("expected ok=%v, got %v", tc.ok, err)
			}
		})
	}
}

func TestLoadBakeAndClipSpecs(t *testing.T) {
	bake, err := LoadBakeSpec("brute.bake.yaml")
	if err != nil {
		t.Fatalf("load bake spec: %v", err)
	}
	for _, m := range bake.Motions {
		clip, err := LoadClipSpec(m.Clip)
		if err != nil {
			t.Fatalf("load clip %s: %v", m.Clip, err)
		}
		if clip.Name != m.Name {
			t.Fatalf("clip %s is named %s", m.Clip, clip.Name)
		}
	}
}

func TestCleanScriptPath(t *testing.T) {
	cases := map[string]string{
		"no_leaps":                       "scripts/no_leaps.tengo",
		"scripts/no_leaps.tengo":         "scripts/no_leaps.tengo",
		"prefabs/scripts/no_leaps.tengo": "scripts/no_leaps.tengo",
	}
	for in, want := range cases {
		if got := cleanScriptPath(in); got != want {
			t.Fatalf("cleanScriptPath(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := LoadScript("no_leaps"); err != nil {
		t.Fatalf("load embedded script: %v", err)
	}
}

func TestWatcherReportsSpecEdits(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	path := filepath.Join(dir, "arena.yaml")
	if err := os.WriteFile(path, []byte("name: x\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case name := <-w.Events:
		if name != path {
			t.Fatalf("expected %s, got %s", path, name)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("no event for %s", path)
	}
}
