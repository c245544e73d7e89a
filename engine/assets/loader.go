package assets

import "github.com/spaghettifunk/forge/engine/assets/loaders"

type Loader interface {
	// params is loader specific; every loader accepts map[string]string{"name": ...}.
	Load(path string, params interface{}) (*loaders.Resource, error)
	Unload(*loaders.Resource) error
}
