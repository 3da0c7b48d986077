package model

// WorkflowDefinition is one selectable request type. Immutable once loaded.
type WorkflowDefinition struct {
	ID          string `yaml:"id" json:"id"`
	DisplayName string `yaml:"display_name" json:"display_name"`
}

// CatalogFile is the on-disk shape of a workflow catalog.
type CatalogFile struct {
	Workflows []WorkflowDefinition `yaml:"workflows"`

	// Set by the loader.
	Checksum   string `yaml:"-"`
	SourceFile string `yaml:"-"`
}

// Option is a value/label pair offered by a select or radio control.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// User is a directory record.
type User struct {
	ID        string  `yaml:"id" json:"id"`
	FirstName string  `yaml:"first_name" json:"first_name"`
	LastName  string  `yaml:"last_name" json:"last_name"`
	ManagerID *string `yaml:"manager_id" json:"manager_id,omitempty"`
}

// DisplayName renders the family name first, separated by a space.
func (u User) DisplayName() string {
	return u.LastName + " " + u.FirstName
}

// DirectoryFile is the on-disk shape of a user directory.
type DirectoryFile struct {
	Users []User `yaml:"users"`
}
