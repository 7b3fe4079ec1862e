package scene

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/df07/go-sphere-raytracer/pkg/renderer"
)

const builtInGroup = "Built-in Scenes"

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier
	Name        string `json:"name"`        // Scene name
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
	Type        string `json:"type"`        // "builtin" or "json"
	FilePath    string `json:"filePath"`    // Path to JSON file (json type only)
	Variant     string `json:"variant"`     // Variant name (optional)
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `json:"name"`
	Scenes []SceneInfo `json:"scenes"`
}

// ScenesResponse represents the complete response for /api/scenes
type ScenesResponse struct {
	Groups []SceneGroup `json:"groups"`
}

// builtinScene pairs catalog metadata with the constructor
type builtinScene struct {
	info   SceneInfo
	create func(...renderer.ViewportOverride) *Scene
}

var builtinScenes = []builtinScene{
	{
		info: SceneInfo{
			ID:          "default",
			Name:        "Default Scene",
			DisplayName: "Default Scene",
			Description: "Diffuse, hollow glass and metal spheres on a ground sphere",
		},
		create: NewDefaultScene,
	},
	{
		info: SceneInfo{
			ID:          "single",
			Name:        "Single Sphere",
			DisplayName: "Single Sphere",
			Description: "One gray diffuse sphere under the sky",
		},
		create: NewSingleSphereScene,
	},
	{
		info: SceneInfo{
			ID:          "sphere-grid",
			Name:        "Sphere Grid",
			DisplayName: "Sphere Grid",
			Description: "Grid of rainbow-colored diffuse, metal and glass spheres",
		},
		create: NewSphereGridScene,
	},
}

// ScenesDirs are searched in order for JSON scene files
var ScenesDirs = []string{"scenes", "../scenes"}

// ListBuiltinScenes returns the metadata of every built-in scene
func ListBuiltinScenes() []SceneInfo {
	scenes := make([]SceneInfo, 0, len(builtinScenes))
	for _, b := range builtinScenes {
		info := b.info
		info.Group = builtInGroup
		info.Type = "builtin"
		scenes = append(scenes, info)
	}
	return scenes
}

// ListJSONScenes scans the first existing scenes directory and returns discovered JSON scenes
func ListJSONScenes() ([]SceneInfo, error) {
	for _, dir := range ScenesDirs {
		if _, err := os.Stat(dir); err == nil {
			return ListJSONScenesIn(dir)
		}
	}

	// No scenes directory found
	return []SceneInfo{}, nil
}

// ListJSONScenesIn returns the JSON scenes in dir sorted by display name
func ListJSONScenesIn(dir string) ([]SceneInfo, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
	}

	scenes := []SceneInfo{}
	for _, filePath := range files {
		sceneInfo, err := ParseSceneMetadata(filePath)
		if err != nil {
			// Skip unreadable files, keep the rest
			continue
		}
		scenes = append(scenes, sceneInfo)
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})

	return scenes, nil
}

// ParseSceneMetadata extracts the optional name, variant, description and group
// fields from the top level of a JSON scene file
func ParseSceneMetadata(filePath string) (SceneInfo, error) {
	filename := filepath.Base(filePath)
	nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))

	// Fallback values
	sceneInfo := SceneInfo{
		ID:          fmt.Sprintf("json:%s", nameWithoutExt),
		Name:        titleCase(nameWithoutExt),
		DisplayName: titleCase(nameWithoutExt),
		Group:       "JSON Scenes",
		Type:        "json",
		FilePath:    filePath,
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return sceneInfo, err
	}
	if !gjson.ValidBytes(data) {
		return sceneInfo, fmt.Errorf("%w: %s is not valid JSON", ErrInvalidScene, filePath)
	}

	metadata := gjson.GetManyBytes(data, "name", "variant", "description", "group")
	if name := metadata[0].String(); name != "" {
		sceneInfo.Name = name
	}
	sceneInfo.Variant = metadata[1].String()
	sceneInfo.Description = metadata[2].String()
	if group := metadata[3].String(); group != "" {
		sceneInfo.Group = group
	}

	if sceneInfo.Variant != "" {
		sceneInfo.DisplayName = fmt.Sprintf("%s - %s", sceneInfo.Name, sceneInfo.Variant)
	} else {
		sceneInfo.DisplayName = sceneInfo.Name
	}

	return sceneInfo, nil
}

// ListAllScenes returns both built-in and JSON scenes, grouped by category
func ListAllScenes() (ScenesResponse, error) {
	jsonScenes, err := ListJSONScenes()
	if err != nil {
		return ScenesResponse{}, fmt.Errorf("failed to list JSON scenes: %w", err)
	}
	return groupScenes(append(ListBuiltinScenes(), jsonScenes...)), nil
}

// groupScenes groups scenes by their Group field, built-in first then alphabetical
func groupScenes(allScenes []SceneInfo) ScenesResponse {
	var response ScenesResponse

	groupMap := make(map[string][]SceneInfo)
	for _, scene := range allScenes {
		groupMap[scene.Group] = append(groupMap[scene.Group], scene)
	}

	var groupNames []string
	for groupName := range groupMap {
		if groupName != builtInGroup {
			groupNames = append(groupNames, groupName)
		}
	}
	sort.Strings(groupNames)

	if builtIn, exists := groupMap[builtInGroup]; exists {
		response.Groups = append(response.Groups, SceneGroup{
			Name:   builtInGroup,
			Scenes: builtIn,
		})
	}

	for _, groupName := range groupNames {
		response.Groups = append(response.Groups, SceneGroup{
			Name:   groupName,
			Scenes: groupMap[groupName],
		})
	}

	return response
}

// Create builds the scene with the given ID. Built-in scenes are matched first,
// then "json:<name>" IDs are looked up in the scenes directory.
func Create(id string, viewportOverrides ...renderer.ViewportOverride) (*Scene, error) {
	for _, b := range builtinScenes {
		if b.info.ID == id {
			// Overrides go through ApplyViewport so bad values are errors, not panics
			s := b.create()
			if err := s.ApplyViewport(mergeOverrides(s.Viewport, viewportOverrides)); err != nil {
				return nil, err
			}
			return s, nil
		}
	}

	if strings.HasPrefix(id, "json:") {
		jsonScenes, err := ListJSONScenes()
		if err != nil {
			return nil, err
		}
		for _, info := range jsonScenes {
			if info.ID == id {
				return LoadFile(info.FilePath, viewportOverrides...)
			}
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownScene, id)
}

// titleCase converts a filename-style string to title case
// e.g., "glass-row" -> "Glass Row"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}

	return strings.Join(words, " ")
}
