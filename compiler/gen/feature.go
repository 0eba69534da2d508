package gen

import (
	"os"
	"path/filepath"
)

var (
	// FeatureSQL adds the SQL mapping of each type to its package: table,
	// discriminator, and the column of every attribute stored in a column.
	FeatureSQL = Feature{
		Name:        "sql",
		Stage:       Stable,
		Default:     true,
		Description: "SQL adds table and column constants to the type packages",
	}

	// FeatureGraphs generates the named entity graph declarations of the
	// model, ready to be registered at startup.
	FeatureGraphs = Feature{
		Name:        "graphs",
		Stage:       Beta,
		Default:     true,
		Description: "Graphs generates the named entity graph declarations of the model",
		cleanup: func(c *Config) error {
			return remove(c.Target, "graphs.go")
		},
	}

	// FeatureAttributeLists adds the Attributes and Associations lists to
	// the type packages.
	FeatureAttributeLists = Feature{
		Name:        "attrlists",
		Stage:       Experimental,
		Default:     false,
		Description: "AttributeLists adds lists of attribute names to the type packages",
	}

	// AllFeatures holds a list of all feature-flags.
	AllFeatures = []Feature{
		FeatureSQL,
		FeatureGraphs,
		FeatureAttributeLists,
	}
)

// FeatureStage describes the stage of the codegen feature.
type FeatureStage int

const (
	_ FeatureStage = iota

	// Experimental features are in development and may change or go away.
	Experimental

	// Alpha features are complete, but their output may still change.
	Alpha

	// Beta features are documented and their output is not expected to
	// change.
	Beta

	// Stable features are Beta features that have been in use for a while.
	Stable
)

// A Feature of the codegen.
type Feature struct {
	// Name of the feature.
	Name string

	// Stage of the feature.
	Stage FeatureStage

	// Default values indicates if this feature is enabled by default.
	Default bool

	// A Description of this feature.
	Description string

	// cleanup used to cleanup all changes when a feature-flag is removed.
	// e.g. delete files from previous codegen runs.
	cleanup func(*Config) error
}

// FeatureByName returns the feature with the given name.
func FeatureByName(name string) (Feature, bool) {
	for _, f := range AllFeatures {
		if f.Name == name {
			return f, true
		}
	}
	return Feature{}, false
}

// remove file (if exists) and its dir if it's empty.
func remove(dir, file string) error {
	if err := os.Remove(filepath.Join(dir, file)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	infos, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		return os.Remove(dir)
	}
	return nil
}
