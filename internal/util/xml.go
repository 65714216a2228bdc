package util

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
)

// SiteXML is the <configuration> document of every *-site.xml file read by
// Hadoop, YARN and Hive.
type SiteXML struct {
	XMLName    xml.Name       `xml:"configuration"`
	Properties []SiteProperty `xml:"property"`
}

type SiteProperty struct {
	Name        string `xml:"name"`
	Value       string `xml:"value"`
	Description string `xml:"description,omitempty"`
	Final       bool   `xml:"final,omitempty"`
}

// NewSiteXML builds a document from name/value pairs in order.
func NewSiteXML(pairs ...[2]string) *SiteXML {
	s := &SiteXML{}
	for _, p := range pairs {
		s.Set(p[0], p[1])
	}
	return s
}

// DecodeSiteXML parses a site document.
func DecodeSiteXML(data []byte) (*SiteXML, error) {
	var s SiteXML
	if err := xml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse configuration xml: %w", err)
	}
	return &s, nil
}

// ReadSiteXML parses the site document at path.
func ReadSiteXML(path string) (*SiteXML, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := DecodeSiteXML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Lookup returns the effective value of name. Like Hadoop, a later
// definition overrides an earlier one unless the earlier one is final.
func (s *SiteXML) Lookup(name string) (string, bool) {
	var (
		value string
		found bool
	)
	for _, p := range s.Properties {
		if p.Name != name {
			continue
		}
		value, found = p.Value, true
		if p.Final {
			break
		}
	}
	return value, found
}

// Value returns the effective value of name, or "" when it is not defined.
func (s *SiteXML) Value(name string) string {
	v, _ := s.Lookup(name)
	return v
}

// Set replaces the first definition of name or appends a new one.
func (s *SiteXML) Set(name, value string) {
	for i := range s.Properties {
		if s.Properties[i].Name == name {
			s.Properties[i].Value = value
			return
		}
	}
	s.Properties = append(s.Properties, SiteProperty{Name: name, Value: value})
}

// Encode renders the document with an XML header. encoding/xml escapes the
// values, so JDBC URLs with & and passwords with < survive intact.
func (s *SiteXML) Encode() ([]byte, error) {
	body, err := xml.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode configuration xml: %w", err)
	}
	out := make([]byte, 0, len(xml.Header)+len(body)+1)
	out = append(out, xml.Header...)
	out = append(out, body...)
	return append(out, '\n'), nil
}

// WriteFile atomically replaces path with the encoded document.
func (s *SiteXML) WriteFile(path string, perm os.FileMode) error {
	data, err := s.Encode()
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data, perm)
}

// LocalPaths resolves a comma separated property such as
// dfs.namenode.name.dir to local directories. Both file: URIs and bare
// paths are accepted.
func (s *SiteXML) LocalPaths(name string) ([]string, error) {
	value, ok := s.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%s is not set", name)
	}
	paths := SplitFileURIs(value)
	if len(paths) == 0 {
		return nil, fmt.Errorf("%s holds no local paths", name)
	}
	return paths, nil
}

// SplitFileURIs turns "file:///a,/b" into ["/a", "/b"].
func SplitFileURIs(value string) []string {
	var paths []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if rest, ok := strings.CutPrefix(item, "file:"); ok {
			item = strings.TrimLeft(rest, "/")
			if item == "" {
				continue
			}
			item = "/" + item
		}
		if item != "" {
			paths = append(paths, item)
		}
	}
	return paths
}
