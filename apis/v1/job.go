package v1

// PackageJobKind is the only kind accepted in the job file's kind field.
const PackageJobKind = "PackageJob"

type PackageJob struct {
	Kind     string         `yaml:"kind" json:"kind" validate:"required,eq=PackageJob"`
	Metadata Metadata       `yaml:"metadata" json:"metadata"`
	Spec     PackageJobSpec `yaml:"spec" json:"spec"`
}

type Metadata struct {
	Name string `yaml:"name" json:"name" validate:"required"`
}

type PackageJobSpec struct {
	Steps  []Step      `yaml:"steps" json:"steps" validate:"required,min=1,dive"`
	Output *OutputSpec `yaml:"output,omitempty" json:"output,omitempty"`
}

// Step is one entry of the job. Exactly one of the step kinds must be set.
type Step struct {
	ID string `yaml:"id" json:"id" validate:"required"`
	// When is a CEL expression over `target` and `vars`; the step is skipped when it is false.
	When *string `yaml:"when,omitempty" json:"when,omitempty"`

	Overrides      *OverridesStep      `yaml:"overrides,omitempty" json:"overrides,omitempty"`
	WelcomeMessage *WelcomeMessageStep `yaml:"welcome_message,omitempty" json:"welcome_message,omitempty"`
	UIPrint        *UIPrintStep        `yaml:"ui_print,omitempty" json:"ui_print,omitempty"`
	File           *FileStep           `yaml:"file,omitempty" json:"file,omitempty"`
	Exec           *ExecStep           `yaml:"exec,omitempty" json:"exec,omitempty"`
}

// OverridesStep copies a directory tree into the package.
type OverridesStep struct {
	// Source defaults to ${TOP}/device/${TARGET_DEVICE}/overrides.
	Source *string `yaml:"source,omitempty" json:"source,omitempty" template:""`
	// Destination is the archive prefix; empty places files at the archive root.
	Destination  string `yaml:"destination,omitempty" json:"destination,omitempty" template:""`
	Symlinks     string `yaml:"symlinks,omitempty" json:"symlinks,omitempty" validate:"omitempty,oneof=follow skip error"`
	SpecialFiles string `yaml:"special_files,omitempty" json:"special_files,omitempty" validate:"omitempty,oneof=error skip"`
}

// WelcomeMessageStep appends the installer banner. It has no options.
type WelcomeMessageStep struct{}

// UIPrintStep appends one ui_print instruction per line.
type UIPrintStep struct {
	Lines []string `yaml:"lines" json:"lines" validate:"required,min=1" template:""`
}

// FileStep adds a single file to the package, read from Source or given inline as Value.
type FileStep struct {
	Source      *string `yaml:"source,omitempty" json:"source,omitempty" validate:"required_without=Value,excluded_with=Value" template:""`
	Value       *string `yaml:"value,omitempty" json:"value,omitempty" validate:"required_without=Source,excluded_with=Source" template:""`
	Destination string  `yaml:"destination" json:"destination" validate:"required" template:""`
}

// ExecStep runs a program from the build tree and adds its standard output to the package.
type ExecStep struct {
	Program     []string          `yaml:"program" json:"program" validate:"required,min=1" template:""`
	Destination string            `yaml:"destination" json:"destination" validate:"required" template:""`
	WorkingDir  *string           `yaml:"working_dir,omitempty" json:"working_dir,omitempty" template:""`
	Timeout     *string           `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Env         map[string]string `yaml:"env,omitempty" json:"env,omitempty" template:""`
}

// OutputSpec configures how the package is written.
type OutputSpec struct {
	Archive *ArchiveSpec `yaml:"archive,omitempty" json:"archive,omitempty"`
	Sink    *SinkSpec    `yaml:"sink,omitempty" json:"sink,omitempty"`
}

// ArchiveSpec configures the package archive. Zip is the default since recovery only
// installs zip packages; tar is available for staging bundles.
type ArchiveSpec struct {
	Format string `yaml:"format,omitempty" json:"format,omitempty" validate:"omitempty,oneof=zip tar"`
	// Method applies to zip: deflate (default) or store.
	Method string `yaml:"method,omitempty" json:"method,omitempty" validate:"omitempty,oneof=deflate store"`
	// Level is the deflate level, -2 to 9. Nil uses the default level.
	Level *int `yaml:"level,omitempty" json:"level,omitempty" validate:"omitempty,min=-2,max=9"`
	// Compression applies to tar: gzip (default), zstd or none.
	Compression string `yaml:"compression,omitempty" json:"compression,omitempty" validate:"omitempty,oneof=gzip zstd none"`
	// Name of the archive; the extension is added when missing. Defaults to the job name.
	Name string `yaml:"name,omitempty" json:"name,omitempty" template:""`
}

// SinkSpec configures the destination (one of the fields should be set).
type SinkSpec struct {
	Stdout     *StdoutSinkSpec     `yaml:"stdout,omitempty" json:"stdout,omitempty"`
	Filesystem *FilesystemSinkSpec `yaml:"filesystem,omitempty" json:"filesystem,omitempty"`
	S3         *S3SinkSpec         `yaml:"s3,omitempty" json:"s3,omitempty"`
}

type StdoutSinkSpec struct{}

type FilesystemSinkSpec struct {
	// Path defaults to ${OUT}.
	Path   *string `yaml:"path,omitempty" json:"path,omitempty" template:""`
	Prefix *string `yaml:"prefix,omitempty" json:"prefix,omitempty" template:""`
}

type S3SinkSpec struct {
	Bucket         string         `yaml:"bucket" json:"bucket" validate:"required" template:""`
	Region         *string        `yaml:"region,omitempty" json:"region,omitempty" template:""`
	Endpoint       *string        `yaml:"endpoint,omitempty" json:"endpoint,omitempty" template:""`
	Prefix         *string        `yaml:"prefix,omitempty" json:"prefix,omitempty" template:""`
	ForcePathStyle bool           `yaml:"force_path_style,omitempty" json:"force_path_style,omitempty"`
	Credentials    *S3Credentials `yaml:"credentials,omitempty" json:"credentials,omitempty"`
}

type S3Credentials struct {
	AccessKeyID     string `yaml:"access_key_id" json:"access_key_id" validate:"required" template:""`
	SecretAccessKey string `yaml:"secret_access_key" json:"secret_access_key" validate:"required" template:""`
}
