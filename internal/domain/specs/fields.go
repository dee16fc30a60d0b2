package specs

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// FieldKind determines how a specification field is rendered and validated
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindNumber   FieldKind = "number"
	KindIP       FieldKind = "ip"
	KindMAC      FieldKind = "mac"
	KindSelect   FieldKind = "select"
	KindTextarea FieldKind = "textarea"
)

// Field describes one specification field: how to label, render and validate it
type Field struct {
	Key         string    `json:"key"`
	Label       string    `json:"label"`
	Placeholder string    `json:"placeholder,omitempty"`
	Kind        FieldKind `json:"kind"`
	Options     []string  `json:"options,omitempty"`
	Required    bool      `json:"required,omitempty"`
}

var (
	// Dotted quad, each octet 0-255
	ipPattern = regexp.MustCompile(`^(25[0-5]|2[0-4][0-9]|1[0-9][0-9]|[1-9]?[0-9])(\.(25[0-5]|2[0-4][0-9]|1[0-9][0-9]|[1-9]?[0-9])){3}$`)

	// Six colon-separated hex pairs
	macPattern = regexp.MustCompile(`^([0-9A-Fa-f]{2}:){5}[0-9A-Fa-f]{2}$`)
)

// fieldCatalog maps every known field key to its metadata
var fieldCatalog = map[string]Field{
	"brand":           {Key: "brand", Label: "Brand", Placeholder: "e.g. Dell", Kind: KindText, Required: true},
	"model":           {Key: "model", Label: "Model", Placeholder: "e.g. OptiPlex 7090", Kind: KindText},
	"purchase_year":   {Key: "purchase_year", Label: "Purchase year", Placeholder: "e.g. 2023", Kind: KindNumber},
	"cpu":             {Key: "cpu", Label: "CPU", Placeholder: "e.g. Intel Core i5-12500", Kind: KindText},
	"ram":             {Key: "ram", Label: "RAM", Placeholder: "e.g. 16GB", Kind: KindText},
	"storage":         {Key: "storage", Label: "Storage", Placeholder: "e.g. 512GB SSD", Kind: KindText},
	"os":              {Key: "os", Label: "Operating system", Kind: KindSelect, Options: []string{"Windows 10", "Windows 11", "Ubuntu", "Other"}},
	"ip_address":      {Key: "ip_address", Label: "IP address", Placeholder: "192.168.1.100", Kind: KindIP},
	"mac_address":     {Key: "mac_address", Label: "MAC address", Placeholder: "00:11:22:33:44:55", Kind: KindMAC},
	"screen_size":     {Key: "screen_size", Label: "Screen size", Placeholder: `e.g. 24"`, Kind: KindText},
	"resolution":      {Key: "resolution", Label: "Resolution", Placeholder: "e.g. 1920x1080", Kind: KindText},
	"print_type":      {Key: "print_type", Label: "Print type", Kind: KindSelect, Options: []string{"laser", "inkjet", "thermal"}},
	"paper_size":      {Key: "paper_size", Label: "Paper size", Placeholder: "e.g. A4", Kind: KindText},
	"duplex":          {Key: "duplex", Label: "Duplex printing", Kind: KindSelect, Options: []string{"yes", "no"}},
	"scan_resolution": {Key: "scan_resolution", Label: "Scan resolution", Placeholder: "e.g. 600dpi", Kind: KindText},
	"scan_speed":      {Key: "scan_speed", Label: "Scan speed", Placeholder: "e.g. 25ppm", Kind: KindText},
	"field_of_view":   {Key: "field_of_view", Label: "Field of view", Placeholder: "e.g. 110°", Kind: KindText},
	"night_vision":    {Key: "night_vision", Label: "Night vision", Kind: KindSelect, Options: []string{"yes", "no"}},
	"wan_ports":       {Key: "wan_ports", Label: "WAN ports", Placeholder: "e.g. 2", Kind: KindNumber},
	"lan_ports":       {Key: "lan_ports", Label: "LAN ports", Placeholder: "e.g. 24", Kind: KindNumber},
	"wifi_standard":   {Key: "wifi_standard", Label: "Wi-Fi standard", Placeholder: "e.g. 802.11ax", Kind: KindText},
	"capacity_va":     {Key: "capacity_va", Label: "Capacity (VA)", Placeholder: "e.g. 1500", Kind: KindNumber},
	"battery_runtime": {Key: "battery_runtime", Label: "Battery runtime", Placeholder: "e.g. 30min", Kind: KindText},
	"notes":           {Key: "notes", Label: "Notes", Kind: KindTextarea},
}

// fieldGroups are named, ordered sets of field keys that categories compose
var fieldGroups = map[string][]string{
	"general":      {"brand", "model", "purchase_year"},
	"compute":      {"cpu", "ram", "storage", "os"},
	"network":      {"ip_address", "mac_address"},
	"display":      {"screen_size", "resolution"},
	"print":        {"print_type", "paper_size", "duplex"},
	"scan":         {"scan_resolution", "scan_speed"},
	"surveillance": {"resolution", "field_of_view", "night_vision", "ip_address"},
	"routing":      {"wan_ports", "lan_ports", "wifi_standard"},
	"power":        {"capacity_va", "battery_runtime"},
	"misc":         {"notes"},
}

// categoryGroups assigns ordered field groups to each device category
var categoryGroups = map[string][]string{
	"pc":        {"general", "compute", "display", "network", "misc"},
	"laptop":    {"general", "compute", "display", "network", "misc"},
	"server":    {"general", "compute", "network", "misc"},
	"printer":   {"general", "print", "network", "misc"},
	"scanner":   {"general", "scan", "network", "misc"},
	"camera":    {"general", "surveillance", "network", "misc"},
	"router":    {"general", "routing", "network", "misc"},
	"switch":    {"general", "routing", "network", "misc"},
	"projector": {"general", "display", "misc"},
	"ups":       {"general", "power", "misc"},
}

// defaultGroups is the fallback for categories with no assignment
var defaultGroups = []string{"general", "misc"}

// Categories returns every category with an explicit field-group assignment
func Categories() []string {
	cats := make([]string, 0, len(categoryGroups))
	for c := range categoryGroups {
		cats = append(cats, c)
	}
	return cats
}

// FieldsForCategory returns the ordered, duplicate-free field keys for a
// device category. Unknown categories fall back to the default groups.
func FieldsForCategory(category string) []string {
	groups, ok := categoryGroups[strings.ToLower(category)]
	if !ok {
		groups = defaultGroups
	}

	seen := make(map[string]struct{})
	var keys []string
	for _, group := range groups {
		for _, key := range fieldGroups[group] {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}
	return keys
}

// FieldMeta resolves a field key to its metadata
func FieldMeta(key string) (Field, bool) {
	f, ok := fieldCatalog[key]
	return f, ok
}

// ValidIP reports whether s is a dotted-quad IPv4 address
func ValidIP(s string) bool {
	return ipPattern.MatchString(s)
}

// ValidMAC reports whether s is six colon-separated hex pairs
func ValidMAC(s string) bool {
	return macPattern.MatchString(s)
}

// FieldError describes one rejected specification value
type FieldError struct {
	Key     string `json:"key"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Key, e.Message)
}

// Validate checks a specifications bag against the category's field set.
// Missing required fields and malformed values are rejected.
func Validate(category string, values map[string]string) []FieldError {
	var errs []FieldError
	for _, key := range FieldsForCategory(category) {
		meta := fieldCatalog[key]
		value, present := values[key]
		if !present || value == "" {
			if meta.Required {
				errs = append(errs, FieldError{Key: key, Message: "is required"})
			}
			continue
		}

		switch meta.Kind {
		case KindNumber:
			if _, err := strconv.Atoi(value); err != nil {
				errs = append(errs, FieldError{Key: key, Message: "must be a number"})
			}
		case KindIP:
			if !ValidIP(value) {
				errs = append(errs, FieldError{Key: key, Message: "must be a valid IPv4 address"})
			}
		case KindMAC:
			if !ValidMAC(value) {
				errs = append(errs, FieldError{Key: key, Message: "must be a valid MAC address"})
			}
		case KindSelect:
			valid := false
			for _, opt := range meta.Options {
				if value == opt {
					valid = true
					break
				}
			}
			if !valid {
				errs = append(errs, FieldError{Key: key, Message: fmt.Sprintf("must be one of %s", strings.Join(meta.Options, ", "))})
			}
		}
	}
	return errs
}
