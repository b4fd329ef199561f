package intellij

import (
	"encoding/xml"
	"io"
	"path/filepath"
	"strings"
)

/*
<?xml version="1.0" encoding="UTF-8"?>
<project version="4">
  <component name="ProjectModuleManager">
    <modules>
      <module fileurl="file://$PROJECT_DIR$/.blaze/modules/app.lib.iml" filepath="$PROJECT_DIR$/.blaze/modules/app.lib.iml" />
    </modules>
  </component>
</project>
*/

// projectDirVar is how IntelliJ refers to the project directory in its files.
const projectDirVar = "$PROJECT_DIR$"

// Modules are the main structure that tells IntelliJ where to find all the modules it knows about.
type Modules struct {
	XMLName   xml.Name         `xml:"project"`
	Version   int              `xml:"version,attr"`
	Component ModulesComponent `xml:"component"`
}

func newModules(filePaths []string) *Modules {
	modules := &Modules{
		Version: 4,
		Component: ModulesComponent{
			Name: "ProjectModuleManager",
		},
	}
	for _, path := range filePaths {
		modules.Component.Modules = append(modules.Component.Modules, newModulesModule(path))
	}
	return modules
}

func (modules *Modules) toXML(w io.Writer) error {
	if _, err := w.Write([]byte(xml.Header)); err != nil {
		return err
	}
	content, err := xml.MarshalIndent(modules, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(content)
	return err
}

// ModulesComponent represents all modules in the workspace.
type ModulesComponent struct {
	XMLName xml.Name        `xml:"component"`
	Name    string          `xml:"name,attr"`
	Modules []ModulesModule `xml:"modules>module"`
}

// ModulesModule represents one module in the workspace, and where to find its definition.
type ModulesModule struct {
	XMLName  xml.Name `xml:"module"`
	FileURL  string   `xml:"fileurl,attr"`
	FilePath string   `xml:"filepath,attr"`
}

// newModulesModule returns the entry for a module file, given relative to the project directory.
func newModulesModule(path string) ModulesModule {
	filePath := projectDirVar + "/" + filepath.ToSlash(path)
	return ModulesModule{
		FileURL:  "file://" + filePath,
		FilePath: filePath,
	}
}

// resolve returns the absolute path of the module file this entry refers to.
func (module ModulesModule) resolve(projectDir string) string {
	return filepath.FromSlash(strings.Replace(module.FilePath, projectDirVar, filepath.ToSlash(projectDir), 1))
}
