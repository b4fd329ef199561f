package intellij

import (
	"encoding/xml"
	"io"
	"path/filepath"
	"strings"

	"github.com/thought-machine/blazesync/src/ide/structure"
)

/*
<?xml version="1.0" encoding="UTF-8"?>
<module type="JAVA_MODULE" version="4">
  <component name="FacetManager">
    <facet type="android" name="Android">
      <configuration>
        <option name="MANIFEST_FILE_RELATIVE_PATH" value="/AndroidManifest.xml" />
      </configuration>
    </facet>
  </component>
  <component name="NewModuleRootManager" inherit-compiler-output="true">
    <content url="file:///ws/app/res">
      <sourceFolder url="file:///ws/app/res" type="java-resource" />
    </content>
    <orderEntry type="inheritedJdk" />
    <orderEntry type="sourceFolder" forTests="false" />
    <orderEntry type="module" module-name="base.res" />
  </component>
</module>
*/

// Module is the root element of a .iml file.
type Module struct {
	XMLName    xml.Name          `xml:"module"`
	ModuleType string            `xml:"type,attr"`
	Version    int               `xml:"version,attr"`
	Components []ModuleComponent `xml:"component"`
}

func newJavaModule() *Module {
	return &Module{
		ModuleType: "JAVA_MODULE",
		Version:    4,
		Components: []ModuleComponent{{
			Name:                  rootManager,
			InheritCompilerOutput: true,
			OrderEntries: []OrderEntry{
				newInheritedJdkEntry(),
				newSourceFolderEntry(false),
			},
		}},
	}
}

// Names of the module components we write.
const (
	rootManager  = "NewModuleRootManager"
	facetManager = "FacetManager"
)

// component returns the component with the given name, adding an empty one if there isn't one.
func (module *Module) component(name string) *ModuleComponent {
	for i := range module.Components {
		if module.Components[i].Name == name {
			return &module.Components[i]
		}
	}
	module.Components = append(module.Components, ModuleComponent{Name: name})
	return &module.Components[len(module.Components)-1]
}

// setAndroidFacet replaces any facets of the module with the given Android one.
func (module *Module) setAndroidFacet(facet structure.AndroidFacet) {
	module.component(facetManager).Facet = newAndroidFacet(facet)
}

func (module *Module) toXML(w io.Writer) error {
	if _, err := w.Write([]byte(xml.Header)); err != nil {
		return err
	}
	content, err := xml.MarshalIndent(module, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(content)
	return err
}

// ModuleComponent is one component of a module. The root manager holds content roots and
// dependencies; the facet manager holds facets.
type ModuleComponent struct {
	XMLName               xml.Name        `xml:"component"`
	Name                  string          `xml:"name,attr"`
	InheritCompilerOutput bool            `xml:"inherit-compiler-output,attr,omitempty"`
	Facet                 *Facet          `xml:"facet,omitempty"`
	Content               []ModuleContent `xml:"content"`
	OrderEntries          []OrderEntry    `xml:"orderEntry"`
}

func (component *ModuleComponent) addContentRoot(path string) {
	url := fileURL(path)
	for _, c := range component.Content {
		if c.URL == url {
			return
		}
	}
	component.Content = append(component.Content, ModuleContent{
		URL:          url,
		SourceFolder: []SourceFolder{{URL: url, Type: "java-resource"}},
	})
}

func (component *ModuleComponent) addModuleDependency(name string) {
	for _, e := range component.OrderEntries {
		if e.ModuleName != nil && *e.ModuleName == name {
			return
		}
	}
	component.OrderEntries = append(component.OrderEntries, newModuleEntry(name))
}

// ModuleContent is one content root.
type ModuleContent struct {
	XMLName      xml.Name       `xml:"content"`
	URL          string         `xml:"url,attr"`
	SourceFolder []SourceFolder `xml:"sourceFolder"`
}

// SourceFolder marks a directory within a content root as containing sources or resources.
type SourceFolder struct {
	XMLName      xml.Name `xml:"sourceFolder"`
	URL          string   `xml:"url,attr"`
	IsTestSource bool     `xml:"isTestSource,attr,omitempty"`
	Type         string   `xml:"type,attr,omitempty"`
}

// OrderEntry is one entry on a module's classpath.
type OrderEntry struct {
	XMLName    xml.Name `xml:"orderEntry"`
	Type       string   `xml:"type,attr"`
	ForTests   *bool    `xml:"forTests,attr,omitempty"`
	ModuleName *string  `xml:"module-name,attr,omitempty"`
}

func newModuleEntry(name string) OrderEntry {
	return OrderEntry{
		Type:       "module",
		ModuleName: &name,
	}
}

func newInheritedJdkEntry() OrderEntry {
	return OrderEntry{
		Type: "inheritedJdk",
	}
}

func newSourceFolderEntry(forTests bool) OrderEntry {
	return OrderEntry{
		Type:     "sourceFolder",
		ForTests: &forTests,
	}
}

// Facet is a single facet with its configuration options.
type Facet struct {
	XMLName xml.Name      `xml:"facet"`
	Type    string        `xml:"type,attr"`
	Name    string        `xml:"name,attr"`
	Options []FacetOption `xml:"configuration>option"`
}

// FacetOption is a single configuration option of a facet.
type FacetOption struct {
	XMLName xml.Name `xml:"option"`
	Name    string   `xml:"name,attr"`
	Value   string   `xml:"value,attr"`
}

func newAndroidFacet(facet structure.AndroidFacet) *Facet {
	options := []FacetOption{
		{Name: "MANIFEST_FILE_RELATIVE_PATH", Value: relativeTo(facet.ModuleDirectory, facet.Manifest)},
	}
	if facet.ResourceJavaPackage != "" {
		options = append(options, FacetOption{Name: "CUSTOM_MANIFEST_PACKAGE", Value: facet.ResourceJavaPackage})
	}
	if len(facet.ResourceDirectories) > 0 {
		dirs := make([]string, len(facet.ResourceDirectories))
		for i, dir := range facet.ResourceDirectories {
			dirs[i] = fileURL(dir)
		}
		options = append(options, FacetOption{Name: "RES_FOLDERS_RELATIVE_PATH", Value: strings.Join(dirs, ";")})
	}
	return &Facet{
		Type:    "android",
		Name:    "Android",
		Options: options,
	}
}

// relativeTo returns path relative to dir, in the form IntelliJ expects for facet options.
func relativeTo(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return path
	}
	return "/" + filepath.ToSlash(rel)
}

func fileURL(path string) string {
	return "file://" + filepath.ToSlash(path)
}
