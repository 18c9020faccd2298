package models

// Document is a source text the letter is grounded on: a resume or a job description.
type Document struct {
	ID       string
	URL      string
	Title    string
	Content  string
	Metadata map[string]interface{}
}

// Match is a single search hit. Distance is cosine distance, lower is closer.
type Match struct {
	Content  string
	Distance float64
}

// Topic labels one entry of an extraction Bundle.
type Topic string

const (
	TopicTechnicalSkills     Topic = "technical_skills"
	TopicSoftSkills          Topic = "soft_skills"
	TopicExperience          Topic = "experience"
	TopicEducation           Topic = "education"
	TopicJobRequirements     Topic = "job_requirements"
	TopicJobResponsibilities Topic = "job_responsibilities"
)

// ResumeTopics are answered from the resume index, JobTopics from the job description index.
var (
	ResumeTopics = []Topic{TopicTechnicalSkills, TopicSoftSkills, TopicExperience, TopicEducation}
	JobTopics    = []Topic{TopicJobRequirements, TopicJobResponsibilities}
)

// AllTopics returns every topic in prompt order.
func AllTopics() []Topic {
	topics := make([]Topic, 0, len(ResumeTopics)+len(JobTopics))
	topics = append(topics, ResumeTopics...)
	return append(topics, JobTopics...)
}

// Bundle maps each topic to the context retrieved for it.
type Bundle map[Topic]string

// ScoreSet maps a requirement statement to a similarity percentage in [0, 100].
type ScoreSet map[string]float64
