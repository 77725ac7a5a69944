package domain

// ExtraInfoField is one discipline specific input on the extra information page
type ExtraInfoField struct {
	Key      string `yaml:"key"`
	Label    string `yaml:"label"`
	Required bool   `yaml:"required"`
}

// Acknowledgement is an example text that can be copied into the acknowledgements
type Acknowledgement struct {
	Agency string `yaml:"agency"`
	Text   string `yaml:"text"`
}

// WizardProfile holds the discipline specific setup of the wizard
type WizardProfile struct {
	Discipline       string            `yaml:"discipline"`
	RequirePdb       bool              `yaml:"requirePdb"`
	ExtraInfo        []ExtraInfoField  `yaml:"extraInfo"`
	Acknowledgements []Acknowledgement `yaml:"acknowledgements"`
}

// DefaultAcknowledgements are offered when the profile brings none of its own
var DefaultAcknowledgements = []Acknowledgement{
	{
		Agency: "Australian Synchrotron facility",
		Text:   "This research was undertaken on the [insert beamline name] beamline at the Australian Synchrotron, Victoria, Australia.",
	},
	{
		Agency: "Science and Industry Endowment Fund",
		Text:   "This work is supported by the Science and Industry Endowment Fund.",
	},
	{
		Agency: "Multi-modal Australian ScienceS Imaging and Visualisation Environment",
		Text:   "This work was supported by the Multi-modal Australian ScienceS Imaging and Visualisation Environment (MASSIVE) (www.massive.org.au).",
	},
	{
		Agency: "Australian National Beamline Facility",
		Text:   "This research was undertaken at the Australian National Beamline Facility at the Photon Factory in Japan, operated by the Australian Synchrotron.  We acknowledge the Australian Research Council for financial support and the High Energy Accelerator Research Organisation (KEK) in Tsukuba, Japan, for operations support.",
	},
	{
		Agency: "International Synchrotron Access Program",
		Text:   "We acknowledge travel funding provided by the International Synchrotron Access Program (ISAP) managed by the Australian Synchrotron and funded by the Australian Government.",
	},
}
