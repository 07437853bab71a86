package codec

import (
	"fmt"
	"strings"

	"github.com/ozontech/seq-features/feature"
	"github.com/ozontech/seq-features/store"
)

// Locatable is a codec producing features of any type.
type Locatable = store.Codec[feature.Locatable]

type erased[T feature.Locatable] struct {
	store.Codec[T]
}

func (e erased[T]) Decode(line []byte) (feature.Locatable, bool, error) {
	f, ok, err := e.Codec.Decode(line)
	if err != nil || !ok {
		return nil, ok, err
	}
	return f, true, nil
}

// Erase hides the concrete feature type of c, for tools handling files of any format.
func Erase[T feature.Locatable](c store.Codec[T]) Locatable {
	return erased[T]{Codec: c}
}

var known = []Locatable{
	Erase[*feature.BED](BED{}),
	Erase[*feature.Table](Table{}),
}

// Names lists the names of the known codecs.
func Names() []string {
	res := make([]string, 0, len(known))
	for _, c := range known {
		res = append(res, c.Name())
	}
	return res
}

func ByName(name string) (Locatable, error) {
	for _, c := range known {
		if strings.EqualFold(c.Name(), name) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("unknown codec %q, known codecs: %s", name, strings.Join(Names(), ", "))
}

// Detect picks the codec for path by its name.
func Detect(path string) (Locatable, error) {
	for _, c := range known {
		if c.CanDecode(path) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("can't detect format of %s, known codecs: %s", path, strings.Join(Names(), ", "))
}
