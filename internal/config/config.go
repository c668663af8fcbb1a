// Package config loads scalerwatch settings from flags, the environment and
// a TOML file, and watches that file for runtime changes.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// EnvPrefix is prepended to every `env` tag.
const EnvPrefix = "SCALERWATCH_"

// LoadConfig fills the flat options struct pointed to by opts.
//
// Precedence is CLI flags > environment > TOML file. Fields map to the file
// through their `toml:"section.key"` tag and to the environment through
// `env:"NAME"` (read as SCALERWATCH_NAME). The file path comes from the
// field named Config; a missing file is not an error. When cmd is non-nil,
// flags the user set explicitly are left untouched.
func LoadConfig(opts any, cmd *cobra.Command) error {
	v := reflect.ValueOf(opts)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("config: expected pointer to struct, got %T", opts)
	}
	v = v.Elem()
	t := v.Type()

	changed := make(map[string]bool)
	if cmd != nil {
		mark := func(f *pflag.Flag) {
			if f.Changed {
				changed[f.Name] = true
			}
		}
		cmd.Flags().VisitAll(mark)
		cmd.PersistentFlags().VisitAll(mark)
	}

	var file map[string]any
	if f := v.FieldByName("Config"); f.IsValid() && f.Kind() == reflect.String && f.String() != "" {
		data, err := os.ReadFile(f.String())
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, &file); err != nil {
				return fmt.Errorf("failed to parse TOML config %s: %w", f.String(), err)
			}
		case !os.IsNotExist(err):
			return fmt.Errorf("failed to read config %s: %w", f.String(), err)
		}
	}

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		sf := t.Field(i)
		if changed[fieldNameToFlag(sf.Name)] {
			continue
		}

		if path := sf.Tag.Get("toml"); path != "" && file != nil {
			if value := getNestedValue(file, path); value != nil {
				if err := setFieldValue(field, value); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}
		}

		if key := sf.Tag.Get("env"); key != "" {
			if raw, ok := os.LookupEnv(EnvPrefix + key); ok && raw != "" {
				if err := setFieldValueFromString(field, raw); err != nil {
					return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
				}
			}
		}
	}
	return nil
}

// fieldNameToFlag converts a struct field name to the flag name humacli
// derives from it: "ScalerBase" -> "scaler-base". Acronyms stay together:
// "FeaturesLEDControl" -> "features-led-control".
func fieldNameToFlag(fieldName string) string {
	runes := []rune(fieldName)
	var result []rune
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevLower := !unicode.IsUpper(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || nextLower {
				result = append(result, '-')
			}
		}
		result = append(result, unicode.ToLower(r))
	}
	return string(result)
}

// getNestedValue retrieves a value from a decoded TOML document using dot notation.
func getNestedValue(data map[string]any, path string) any {
	current := data
	parts := strings.Split(path, ".")
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			return nil
		}
		current = next
	}
	return current[parts[len(parts)-1]]
}

// setFieldValue assigns a decoded TOML value. Strings are accepted for every
// kind so that `base = "0x20000000"` works for numeric fields.
func setFieldValue(field reflect.Value, value any) error {
	if !field.CanSet() {
		return nil
	}
	if s, ok := value.(string); ok {
		return setFieldValueFromString(field, s)
	}

	switch field.Kind() {
	case reflect.Bool:
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", value)
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int64, reflect.Int32:
		i, ok := value.(int64)
		if !ok {
			return fmt.Errorf("expected integer, got %T", value)
		}
		field.SetInt(i)
	case reflect.Uint, reflect.Uint64, reflect.Uint32:
		i, ok := value.(int64)
		if !ok || i < 0 {
			return fmt.Errorf("expected non-negative integer, got %v", value)
		}
		field.SetUint(uint64(i))
	case reflect.Float64:
		switch n := value.(type) {
		case float64:
			field.SetFloat(n)
		case int64:
			field.SetFloat(float64(n))
		default:
			return fmt.Errorf("expected number, got %T", value)
		}
	case reflect.Slice:
		arr, ok := value.([]any)
		if !ok || field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("expected string array, got %T", value)
		}
		slice := make([]string, 0, len(arr))
		for _, item := range arr {
			slice = append(slice, fmt.Sprint(item))
		}
		field.Set(reflect.ValueOf(slice))
	default:
		return fmt.Errorf("unsupported field kind %s", field.Kind())
	}
	return nil
}

// setFieldValueFromString parses an environment value into the field.
// Integers accept any base prefix understood by strconv (0x, 0o, 0b).
func setFieldValueFromString(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int64, reflect.Int32:
		i, err := strconv.ParseInt(value, 0, 64)
		if err != nil {
			return err
		}
		field.SetInt(i)
	case reflect.Uint, reflect.Uint64, reflect.Uint32:
		u, err := strconv.ParseUint(value, 0, 64)
		if err != nil {
			return err
		}
		field.SetUint(u)
	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice of %s", field.Type().Elem().Kind())
		}
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		field.Set(reflect.ValueOf(parts))
	default:
		return fmt.Errorf("unsupported field kind %s", field.Kind())
	}
	return nil
}
