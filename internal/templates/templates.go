package templates

// ProjectData is the input of the init templates.
type ProjectData struct {
	Service  string
	Region   string
	Domain   string
	Database string
	Stages   []StageData
}

// StageData describes one starter environment.
type StageData struct {
	Env     string
	Variant string
	Zones   []string
}

// DefaultProject returns a dev stage on the minimal variant and a stage
// environment on the full one.
func DefaultProject(service, region string) ProjectData {
	return ProjectData{
		Service:  service,
		Region:   region,
		Domain:   "api",
		Database: "app",
		Stages: []StageData{
			{Env: "dev", Variant: "minimal", Zones: []string{region + "a"}},
			{Env: "stage", Variant: "full", Zones: []string{region + "a", region + "c"}},
		},
	}
}
