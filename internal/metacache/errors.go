package metacache

import "fmt"

func errTypeMismatch(key string) error {
	return fmt.Errorf("metacache: cached value for %q has an unexpected type", key)
}
