package catalog

import (
	"fmt"
	"strings"
)

// rule maps course-name keywords to a description and an image keyword.
type rule struct {
	keywords     []string
	description  string
	imageKeyword string
}

// rules are checked in order; the first match wins.
var rules = []rule{
	{[]string{"python"}, "Learn Python fundamentals, modules, data structures, and applications", "python"},
	{[]string{"data structure", "algorithm"}, "Fundamental algorithms, data structures, and problem-solving", "algorithm"},
	{[]string{"operating"}, "Process management, memory management, and OS architecture", "computer"},
	{[]string{"circuit", "electric"}, "Circuit analysis, electrical components, and system design", "circuit"},
	{[]string{"design", "modelling"}, "CAD/CAM, design principles, and 3D modelling techniques", "engineering"},
	{[]string{"drone"}, "Drone technology, applications, and control systems", "drone"},
	{[]string{"communication"}, "Technical writing, presentation skills, and professional etiquette", "communication"},
}

// Describe derives a description and image keyword from a course name.
func Describe(name string) (description, imageKeyword string) {
	lower := strings.ToLower(name)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.description, r.imageKeyword
			}
		}
	}
	return fmt.Sprintf("Course materials and resources for %s", name), DefaultImageKeyword
}
