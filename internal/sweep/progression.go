package sweep

import (
	"fmt"
	"strings"
)

// Progression orders the stages of a run that raises both the level and
// the repeat count.
type Progression int

const (
	// LevelFirst refines to the target level, then adds repeats there.
	LevelFirst Progression = iota
	// RepeatsFirst reaches the repeat target before each refinement.
	RepeatsFirst
	// Alternating raises level and repeats by one step in turn.
	Alternating
)

var progressionNames = [...]string{"level_first", "repeats_first", "alternating"}

func (p Progression) String() string {
	if p < 0 || int(p) >= len(progressionNames) {
		return fmt.Sprintf("progression(%d)", int(p))
	}
	return progressionNames[p]
}

// ParseProgression parses a progression name such as "repeats_first".
func ParseProgression(s string) (Progression, error) {
	for i, n := range progressionNames {
		if strings.EqualFold(strings.ReplaceAll(s, "-", "_"), n) {
			return Progression(i), nil
		}
	}
	return 0, configErrorf("progression", "unknown %q (want one of %s)", s, strings.Join(progressionNames[:], ", "))
}

// MarshalText implements encoding.TextMarshaler.
func (p Progression) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Progression) UnmarshalText(b []byte) error {
	v, err := ParseProgression(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Stage is one step of a progressive run: every coordinate of Level
// resolved at repeats 1..Repeats.
type Stage struct {
	Level   int
	Repeats int
}

// Stages lists the stages that take a run from (level, repeats) to
// (maxLevel, maxRepeats) in the order of p. Neither coordinate ever
// decreases, so the last stage is always (maxLevel, maxRepeats). A start
// beyond a target is clamped to the target.
func Stages(level, repeats, maxLevel, maxRepeats int, p Progression) []Stage {
	level = min(level, maxLevel)
	repeats = min(repeats, maxRepeats)
	out := []Stage{{Level: level, Repeats: repeats}}
	add := func() { out = append(out, Stage{Level: level, Repeats: repeats}) }

	switch p {
	case RepeatsFirst:
		for repeats < maxRepeats {
			repeats++
			add()
		}
		for level < maxLevel {
			level++
			add()
		}
	case Alternating:
		for level < maxLevel || repeats < maxRepeats {
			if level < maxLevel {
				level++
				add()
			}
			if repeats < maxRepeats {
				repeats++
				add()
			}
		}
	default:
		for level < maxLevel {
			level++
			add()
		}
		for repeats < maxRepeats {
			repeats++
			add()
		}
	}
	return out
}
