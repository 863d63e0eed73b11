package wyrd

// Same as 	"k8s.io/apimachinery/pkg/labels".Set
type Labels map[string]string

func (l Labels) Has(key string) bool {
	_, ok := l[key]
	return ok
}

func (l Labels) Get(key string) string {
	return l[key]
}

// MergeLabels returns a new set of labels, keys of the later sets override earlier ones
func MergeLabels(sets ...Labels) Labels {
	size := 0
	for _, s := range sets {
		size += len(s)
	}

	result := make(Labels, size)
	for _, s := range sets {
		for k, v := range s {
			result[k] = v
		}
	}

	return result
}
