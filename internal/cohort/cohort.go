// Package cohort maps cohort identities to schedule store partitions and back.
//
// A cohort is addressed externally by a (type, number) pair such as ("Basic", "1.1").
// Each cohort owns exactly one partition, a table named
// schedule_<type>_<number>, e.g. schedule_basic_1_1. Type is letters only and
// case-insensitive; number is dot-separated digits. Because neither component may
// contain an underscore, the mapping is injective and reversible.
package cohort

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const partitionPrefix = "schedule_"

// ErrInvalidKey is returned for cohort types or numbers outside the accepted grammar.
var ErrInvalidKey = errors.New("invalid cohort key")

var (
	typePattern      = regexp.MustCompile(`^[A-Za-z]+$`)
	numberPattern    = regexp.MustCompile(`^\d+(\.\d+)*$`)
	partitionPattern = regexp.MustCompile(`^schedule_([a-z]+)_(\d+(?:_\d+)*)$`)
)

// Key identifies a cohort. Build it with NewKey so it is always canonical.
type Key struct {
	Type   string
	Number string
}

// Partition is the name of the schedule table owned by one cohort.
type Partition string

func (p Partition) String() string { return string(p) }

// NewKey validates and canonicalizes a cohort type/number pair.
func NewKey(cohortType, number string) (Key, error) {
	cohortType = strings.TrimSpace(cohortType)
	number = strings.TrimSpace(number)

	if !typePattern.MatchString(cohortType) {
		return Key{}, fmt.Errorf("%w: type %q must contain letters only", ErrInvalidKey, cohortType)
	}
	if !numberPattern.MatchString(number) {
		return Key{}, fmt.Errorf("%w: number %q must be dot-separated digits", ErrInvalidKey, number)
	}

	return Key{Type: titleCase(cohortType), Number: number}, nil
}

// Partition returns the storage partition owned by the cohort.
func (k Key) Partition() Partition {
	return Partition(partitionPrefix + strings.ToLower(k.Type) + "_" + strings.ReplaceAll(k.Number, ".", "_"))
}

// Name is the human readable cohort name, e.g. "Basic 1.1".
func (k Key) Name() string {
	return k.Type + " " + k.Number
}

// ParsePartition recovers the cohort key from a partition name.
// ok is false when the name was not produced by Key.Partition.
func ParsePartition(name string) (Key, bool) {
	m := partitionPattern.FindStringSubmatch(name)
	if m == nil {
		return Key{}, false
	}
	return Key{
		Type:   titleCase(m[1]),
		Number: strings.ReplaceAll(m[2], "_", "."),
	}, true
}

// DisplayName resolves the cohort name of a partition. When the partition does not
// follow the naming scheme, the humanized raw name is returned with ok=false.
func DisplayName(p Partition) (name string, key Key, ok bool) {
	key, ok = ParsePartition(string(p))
	if !ok {
		return Humanize(string(p)), Key{}, false
	}
	return key.Name(), key, true
}

// Humanize turns an identifier like "schedule_foo-bar" into "Schedule Foo Bar".
func Humanize(raw string) string {
	words := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	for i, w := range words {
		words[i] = titleCase(w)
	}
	return strings.Join(words, " ")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
