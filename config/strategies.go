package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/alejandrodnm/kalshibot/internal/strategy"
)

// ErrStrategyDisabled indica que el archivo tiene enabled: false.
var ErrStrategyDisabled = errors.New("strategy disabled")

// StrategyDef es la definición YAML de una estrategia. Admite dos formas:
// entry_conditions + trade, o type + params directo.
type StrategyDef struct {
	Name            string         `yaml:"name"`
	Enabled         *bool          `yaml:"enabled"`
	Type            string         `yaml:"type"`
	Params          map[string]any `yaml:"params"`
	EntryConditions []ConditionDef `yaml:"entry_conditions"`
	Trade           map[string]any `yaml:"trade"`
	Targets         []TargetDef    `yaml:"targets"`
}

// ConditionDef es una condición de entrada.
type ConditionDef struct {
	Type   string         `yaml:"type"`
	Params map[string]any `yaml:"params"`
}

// TargetDef restringe la estrategia a un deporte.
type TargetDef struct {
	Sport string `yaml:"sport"`
}

// IsEnabled devuelve true salvo que enabled sea false explícitamente.
func (d StrategyDef) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

// LoadStrategies carga todas las estrategias habilitadas de dir (*.yaml, *.yml),
// en orden de nombre de archivo. Las inválidas se loguean y se saltan.
// Un directorio inexistente devuelve una lista vacía.
func LoadStrategies(dir string) ([]strategy.Strategy, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config.LoadStrategies: read dir %q: %w", dir, err)
	}

	var out []strategy.Strategy
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		s, err := LoadStrategyFile(path)
		if errors.Is(err, ErrStrategyDisabled) {
			slog.Debug("strategy disabled", "file", path)
			continue
		}
		if err != nil {
			slog.Warn("skipping invalid strategy", "file", path, "err", err)
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// LoadStrategyFile carga y construye una estrategia desde un archivo.
// Sin name, se usa el nombre del archivo.
func LoadStrategyFile(path string) (strategy.Strategy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return strategy.Strategy{}, fmt.Errorf("config.LoadStrategyFile: %w", err)
	}
	def, err := ParseStrategy(data)
	if err != nil {
		return strategy.Strategy{}, fmt.Errorf("config.LoadStrategyFile %q: %w", path, err)
	}
	if def.Name == "" {
		def.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if !def.IsEnabled() {
		return strategy.Strategy{}, fmt.Errorf("%q: %w", def.Name, ErrStrategyDisabled)
	}
	return BuildStrategy(def)
}

// ParseStrategy decodifica una definición YAML.
func ParseStrategy(data []byte) (StrategyDef, error) {
	var def StrategyDef
	if err := yaml.Unmarshal(data, &def); err != nil {
		return StrategyDef{}, fmt.Errorf("parse strategy YAML: %w", err)
	}
	return def, nil
}

// BuildStrategy construye la estrategia validada a partir de la definición.
//
// Con entry_conditions, el bloque trade se mezcla en los params de cada
// score_margin; una sola condición toma el nombre del padre y varias se
// envuelven en un composite AND implícito.
func BuildStrategy(def StrategyDef) (strategy.Strategy, error) {
	name := def.Name
	if name == "" {
		name = "unnamed"
	}

	sports, err := parseTargets(name, def.Targets)
	if err != nil {
		return strategy.Strategy{}, err
	}

	var s strategy.Strategy
	if len(def.EntryConditions) > 0 {
		s, err = buildFromConditions(name, def)
	} else {
		s, err = buildTyped(name, def.Type, def.Params)
	}
	if err != nil {
		return strategy.Strategy{}, err
	}
	if len(sports) > 0 {
		s = s.WithSports(sports...)
	}
	return s, nil
}

func buildFromConditions(name string, def StrategyDef) (strategy.Strategy, error) {
	children := make([]strategy.Strategy, 0, len(def.EntryConditions))
	for i, c := range def.EntryConditions {
		params := c.Params
		if c.Type == "score_margin" {
			params = merge(params, def.Trade)
		}
		childName := fmt.Sprintf("%s_condition_%d", name, i)
		if len(def.EntryConditions) == 1 {
			childName = name
		}
		child, err := buildTyped(childName, c.Type, params)
		if err != nil {
			return strategy.Strategy{}, err
		}
		children = append(children, child)
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return strategy.NewComposite(name, strategy.OperatorAnd, children...)
}

func buildTyped(name, typ string, params map[string]any) (strategy.Strategy, error) {
	switch typ {
	case "score_margin":
		return buildMargin(name, params)
	case "game_time":
		return buildWindow(name, params)
	case "composite":
		return buildComposite(name, params)
	case "":
		return strategy.Strategy{}, invalidDef(name, "missing 'type' field")
	default:
		return strategy.Strategy{}, invalidDef(name, "unknown strategy type %q (available: score_margin, game_time, composite)", typ)
	}
}

func buildMargin(name string, params map[string]any) (strategy.Strategy, error) {
	minMargin, err := intParam(name, params, "min_margin", 0, true)
	if err != nil {
		return strategy.Strategy{}, err
	}
	p := strategy.DefaultMarginParams(minMargin)
	if p.Size, err = intParam(name, params, "size", p.Size, false); err != nil {
		return strategy.Strategy{}, err
	}
	if p.LimitOffset, err = intParam(name, params, "limit_offset", p.LimitOffset, false); err != nil {
		return strategy.Strategy{}, err
	}
	if v, ok := params["direction"]; ok {
		p.Direction = strategy.Direction(fmt.Sprint(v))
	}
	if v, ok := params["side"]; ok {
		p.Side = domain.Side(fmt.Sprint(v))
	}
	return strategy.NewMargin(name, p)
}

func buildWindow(name string, params map[string]any) (strategy.Strategy, error) {
	minPeriod, err := intParam(name, params, "min_period", 0, true)
	if err != nil {
		return strategy.Strategy{}, err
	}
	p := strategy.WindowParams{MinPeriod: minPeriod}
	if v, ok := params["max_clock"]; ok && v != nil {
		f, ok := toFloat(v)
		if !ok {
			return strategy.Strategy{}, invalidDef(name, "max_clock must be a number, got %v", v)
		}
		p.MaxClock = &f
	}
	return strategy.NewTimeWindow(name, p)
}

func buildComposite(name string, params map[string]any) (strategy.Strategy, error) {
	op := strategy.OperatorAnd
	if v, ok := params["operator"]; ok {
		op = strategy.Operator(strings.ToLower(fmt.Sprint(v)))
	}

	var children []strategy.Strategy
	if raw, ok := params["strategies"]; ok {
		list, ok := raw.([]any)
		if !ok {
			return strategy.Strategy{}, invalidDef(name, "params.strategies must be a list")
		}
		for i, item := range list {
			child, err := decodeChild(item)
			if err != nil {
				return strategy.Strategy{}, invalidDef(name, "child %d: %v", i, err)
			}
			if child.Name == "" {
				child.Name = fmt.Sprintf("%s_child_%d", name, i)
			}
			s, err := BuildStrategy(child)
			if err != nil {
				return strategy.Strategy{}, err
			}
			children = append(children, s)
		}
	}
	return strategy.NewComposite(name, op, children...)
}

// decodeChild re-decodifica un hijo genérico en StrategyDef.
func decodeChild(item any) (StrategyDef, error) {
	raw, err := yaml.Marshal(item)
	if err != nil {
		return StrategyDef{}, err
	}
	return ParseStrategy(raw)
}

func parseTargets(name string, targets []TargetDef) ([]domain.Sport, error) {
	var out []domain.Sport
	for _, t := range targets {
		sp, err := domain.ParseSport(t.Sport)
		if err != nil {
			return nil, invalidDef(name, "targets: %v", err)
		}
		out = append(out, sp)
	}
	return out, nil
}

func intParam(name string, params map[string]any, key string, def int, required bool) (int, error) {
	v, ok := params[key]
	if !ok || v == nil {
		if required {
			return 0, invalidDef(name, "missing required param %q", key)
		}
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		if n <= math.MaxInt32 {
			return int(n), nil
		}
	}
	return 0, invalidDef(name, "%s must be an integer, got %v", key, v)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func merge(base, extra map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func invalidDef(name, format string, args ...any) error {
	return fmt.Errorf("strategy %q: %s: %w", name, fmt.Sprintf(format, args...), strategy.ErrInvalidConfig)
}
