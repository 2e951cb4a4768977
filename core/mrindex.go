package core

// indexPack is the JSON schema of modrinth.index.json.
// Required fields are pointers or slices so that absence can be told apart from zero values.
type indexPack struct {
	FormatVersion *uint32           `json:"formatVersion" validate:"required"`
	Game          string            `json:"game" validate:"required"`
	VersionID     string            `json:"versionId"`
	Name          string            `json:"name"`
	Summary       string            `json:"summary,omitempty"`
	Files         []indexFile       `json:"files" validate:"required,dive"`
	Dependencies  map[string]string `json:"dependencies" validate:"required"`
}

type indexFile struct {
	Path      string            `json:"path" validate:"required"`
	Hashes    map[string]string `json:"hashes" validate:"required"`
	Env       *indexEnv         `json:"env"`
	Downloads []string          `json:"downloads" validate:"required,dive,required"`
	FileSize  uint32            `json:"fileSize"`
}

type indexEnv struct {
	Client string `json:"client" validate:"omitempty,oneof=required optional unsupported"`
	Server string `json:"server" validate:"omitempty,oneof=required optional unsupported"`
}

// Dependency keys of the index that name a mod loader, in order of preference
var loaderDependencies = []struct {
	Key    string
	Family string
}{
	{"quilt-loader", "quilt"},
	{"fabric-loader", "fabric"},
	{"neoforge", "neoforge"},
	{"forge", "forge"},
}

func (p indexPack) loader() ModLoader {
	for _, l := range loaderDependencies {
		if v, ok := p.Dependencies[l.Key]; ok {
			return ModLoader{Family: l.Family, Version: v}
		}
	}
	return ModLoader{}
}

func (e *indexEnv) toEnv() *Env {
	if e == nil {
		return nil
	}
	return &Env{Client: Requirement(e.Client), Server: Requirement(e.Server)}
}
