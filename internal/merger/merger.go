package merger

import (
	"encoding/json"
	"sort"
)

// Stage names one merge category performed by the engine.
type Stage string

const (
	StagePacks         Stage = "packs"
	StageAAMP          Stage = "aamp"
	StageDrops         Stage = "drops"
	StageTexts         Stage = "texts"
	StageActors        Stage = "actors"
	StageDungeonStatic Stage = "dungeonstatic"
	StageMaps          Stage = "maps"
	StageGameData      Stage = "gamedata"
	StageSaveData      Stage = "savedata"
	StageEventInfo     Stage = "eventinfo"
	StageEffects       Stage = "effects"
	StageResidents     Stage = "residents"
	StageQuests        Stage = "quests"
	StageRSTB          Stage = "rstb"
)

// Option groups understood by the engine.
const (
	GroupRSTB    = "rstb"
	GroupTexts   = "texts"
	GroupGeneral = "general"
)

// Switch binds a create flag to the stage it disables.
type Switch struct {
	Flag  string
	Stage Stage
	Usage string
}

// Tuning binds a create flag to the single option entry it writes.
type Tuning struct {
	Flag  string
	Group string
	Key   string
	Value any
	Usage string
}

// DisableSwitches is the flag → stage table, in engine stage order.
var DisableSwitches = []Switch{
	{Flag: "disablepacks", Stage: StagePacks, Usage: "Disable the pack merger"},
	{Flag: "disableaamp", Stage: StageAAMP, Usage: "Disable the AAMP merger"},
	{Flag: "disabledrops", Stage: StageDrops, Usage: "Disable the drop table merger"},
	{Flag: "disabletext", Stage: StageTexts, Usage: "Disable the text merger"},
	{Flag: "disableactorinfo", Stage: StageActors, Usage: "Disable the actor info merger"},
	{Flag: "disableshrineent", Stage: StageDungeonStatic, Usage: "Disable the shrine entrance merger"},
	{Flag: "disablemaps", Stage: StageMaps, Usage: "Disable the map merger"},
	{Flag: "disablegamedata", Stage: StageGameData, Usage: "Disable the game data merger"},
	{Flag: "disablesavedata", Stage: StageSaveData, Usage: "Disable the save data merger"},
	{Flag: "disableeventinfo", Stage: StageEventInfo, Usage: "Disable the event info merger"},
	{Flag: "disablestatuseff", Stage: StageEffects, Usage: "Disable the status effect merger"},
	{Flag: "disableresactors", Stage: StageResidents, Usage: "Disable the resident actors merger"},
	{Flag: "disablequests", Stage: StageQuests, Usage: "Disable the quest merger"},
	{Flag: "disablerstb", Stage: StageRSTB, Usage: "Disable editing of the RSTB"},
}

// TuningSwitches is the flag → option table.
var TuningSwitches = []Tuning{
	{Flag: "norstbest", Group: GroupRSTB, Key: "no_guess", Value: true, Usage: "Skip RSTB size estimation for AAMP and BFRES entries"},
	{Flag: "mergetextalllang", Group: GroupTexts, Key: "all_langs", Value: true, Usage: "Merge text changes into all languages"},
	{Flag: "lowestpriority", Group: GroupGeneral, Key: "base_priority", Value: true, Usage: "Install the mod at the lowest merge priority"},
}

// Stages returns every known stage in engine order.
func Stages() []Stage {
	out := make([]Stage, 0, len(DisableSwitches))
	for _, sw := range DisableSwitches {
		out = append(out, sw.Stage)
	}
	return out
}

// Selection records which flags were set, keyed by flag name.
type Selection map[string]bool

// Options maps an option group to its key/value entries.
type Options map[string]map[string]any

// Config is the merger configuration handed to the engine.
//
// A stage may be disabled and tuned at the same time; the engine decides which
// wins.
type Config struct {
	Disable []Stage `json:"disable"`
	Options Options `json:"options"`
}

// Build translates a flag selection into a merger configuration. Unknown flag
// names are ignored.
func Build(sel Selection) Config {
	cfg := Config{
		Disable: []Stage{},
		Options: Options{},
	}
	for _, sw := range DisableSwitches {
		if sel[sw.Flag] {
			cfg.Disable = append(cfg.Disable, sw.Stage)
		}
	}
	for _, tn := range TuningSwitches {
		if !sel[tn.Flag] {
			continue
		}
		group, ok := cfg.Options[tn.Group]
		if !ok {
			group = map[string]any{}
			cfg.Options[tn.Group] = group
		}
		group[tn.Key] = tn.Value
	}
	return cfg
}

// Disabled reports whether stage is in the disable set.
func (c Config) Disabled(stage Stage) bool {
	for _, s := range c.Disable {
		if s == stage {
			return true
		}
	}
	return false
}

// Enabled returns the stages left on, in engine order.
func (c Config) Enabled() []Stage {
	var out []Stage
	for _, stage := range Stages() {
		if !c.Disabled(stage) {
			out = append(out, stage)
		}
	}
	return out
}

// Option returns the value stored under group/key.
func (c Config) Option(group, key string) (any, bool) {
	entries, ok := c.Options[group]
	if !ok {
		return nil, false
	}
	v, ok := entries[key]
	return v, ok
}

// Groups returns the option group names in sorted order.
func (c Config) Groups() []string {
	names := make([]string, 0, len(c.Options))
	for name := range c.Options {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// JSON encodes the configuration in the engine's wire form.
func (c Config) JSON() (string, error) {
	if c.Disable == nil {
		c.Disable = []Stage{}
	}
	if c.Options == nil {
		c.Options = Options{}
	}
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
