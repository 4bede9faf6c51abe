package uci

import (
	"fmt"
	"strings"
)

// Preset is a named strength setting: engine options plus search limits.
type Preset struct {
	Name    string
	Options Options
	Limits  Limits
}

var presets = map[string]Preset{
	"level1": {Name: "level1", Options: Options{SkillLevel: 0, ForceSkill: true, HashMB: 16}, Limits: Limits{Depth: 5, MoveTimeMillis: 20}},
	"level2": {Name: "level2", Options: Options{SkillLevel: 0, ForceSkill: true, HashMB: 16}, Limits: Limits{Depth: 6, MoveTimeMillis: 60}},
	"level3": {Name: "level3", Options: Options{SkillLevel: 1, HashMB: 24}, Limits: Limits{Depth: 8, MoveTimeMillis: 80}},
	"level4": {Name: "level4", Options: Options{SkillLevel: 3, HashMB: 32}, Limits: Limits{Depth: 10, MoveTimeMillis: 140}},
	"level5": {Name: "level5", Options: Options{SkillLevel: 7, HashMB: 48}, Limits: Limits{Depth: 12, MoveTimeMillis: 200}},
	"level6": {Name: "level6", Options: Options{SkillLevel: 11, HashMB: 64}, Limits: Limits{Depth: 16, MoveTimeMillis: 300}},
	"level7": {Name: "level7", Options: Options{SkillLevel: 16, HashMB: 96}, Limits: Limits{Depth: 20, MoveTimeMillis: 500}},
	"level8": {Name: "level8", Options: Options{SkillLevel: 20, HashMB: 128}, Limits: Limits{Depth: 30, MoveTimeMillis: 1000}},
}

func GetPreset(name string) (Preset, error) {
	p, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Preset{}, fmt.Errorf("unknown engine preset %q", name)
	}
	return p, nil
}

// Merge overlays the non-zero fields of o on the preset options.
func (p Preset) Merge(o Options) Options {
	out := p.Options
	if o.Threads > 0 {
		out.Threads = o.Threads
	}
	if o.HashMB > 0 {
		out.HashMB = o.HashMB
	}
	if o.SkillLevel > 0 || o.ForceSkill {
		out.SkillLevel = o.SkillLevel
		out.ForceSkill = true
	}
	if o.MultiPV > 0 {
		out.MultiPV = o.MultiPV
	}
	return out
}
