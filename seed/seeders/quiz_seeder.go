package seeders

import (
	"encoding/json"
	"log"
	"time"

	"github.com/djimmy2web/certifdiag_api/model"

	"gorm.io/gorm"
)

// QuizSeeder handles seeding quizzes and their question arrays
type QuizSeeder struct {
	db *gorm.DB
}

// NewQuizSeeder creates a new quiz seeder
func NewQuizSeeder(db *gorm.DB) *QuizSeeder {
	return &QuizSeeder{db: db}
}

// SeedQuizzes seeds the database with the starter quiz catalog
func (s *QuizSeeder) SeedQuizzes() error {
	quizzes := s.getQuizzes()

	for _, quiz := range quizzes {
		var existing model.Quiz
		if err := s.db.Where("id = ?", quiz.ID).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				if err := s.db.Create(&quiz).Error; err != nil {
					log.Printf("Error creating quiz %s: %v", quiz.Title, err)
					return err
				}
				log.Printf("Created quiz: %s", quiz.Title)
			} else {
				log.Printf("Error checking quiz %s: %v", quiz.Title, err)
				return err
			}
		} else {
			log.Printf("Quiz %s already exists, skipping", quiz.Title)
		}
	}

	log.Println("Quiz seeding completed successfully")
	return nil
}

func questionsJSON(questions []model.Question) json.RawMessage {
	data, err := json.Marshal(questions)
	if err != nil {
		log.Fatalf("Failed to marshal questions: %v", err)
	}
	return data
}

func (s *QuizSeeder) getQuizzes() []model.Quiz {
	now := time.Now()

	return []model.Quiz{
		{
			ID:          "quiz_networking_basics",
			ThemeID:     "theme_networking",
			Title:       "Networking Basics",
			Description: "Addressing, ports and the protocols that move packets.",
			Level:       "beginner",
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
			Questions: questionsJSON([]model.Question{
				{
					Text:        "Which protocol resolves a hostname to an IP address?",
					Explanation: "DNS translates human-readable names into IP addresses.",
					Choices: []model.Choice{
						{Text: "DHCP"},
						{Text: "DNS", IsCorrect: true},
						{Text: "ARP"},
						{Text: "NAT"},
					},
				},
				{
					Text:        "What is the default port for HTTPS?",
					Explanation: "HTTPS uses TCP port 443; plain HTTP uses 80.",
					Choices: []model.Choice{
						{Text: "80"},
						{Text: "22"},
						{Text: "443", IsCorrect: true},
						{Text: "8080"},
					},
				},
				{
					Text:        "Which transport protocol guarantees ordered delivery?",
					Explanation: "TCP retransmits and reorders segments; UDP does neither.",
					Choices: []model.Choice{
						{Text: "UDP"},
						{Text: "ICMP"},
						{Text: "TCP", IsCorrect: true},
					},
				},
				{
					Text:        "How many usable host addresses does a /30 IPv4 subnet provide?",
					Explanation: "A /30 has 4 addresses; network and broadcast leave 2 usable.",
					Choices: []model.Choice{
						{Text: "2", IsCorrect: true},
						{Text: "4"},
						{Text: "6"},
						{Text: "8"},
					},
				},
				{
					Text:        "Which device forwards traffic between different IP networks?",
					Explanation: "Routers operate at layer 3 and route between networks.",
					Choices: []model.Choice{
						{Text: "Switch"},
						{Text: "Hub"},
						{Text: "Router", IsCorrect: true},
						{Text: "Repeater"},
					},
				},
			}),
		},
		{
			ID:          "quiz_http_fundamentals",
			ThemeID:     "theme_web",
			Title:       "HTTP Fundamentals",
			Description: "Methods, status codes and caching headers.",
			Level:       "beginner",
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
			Questions: questionsJSON([]model.Question{
				{
					Text:        "Which HTTP method is idempotent by specification?",
					Explanation: "PUT replaces the target resource; repeating it yields the same state.",
					Choices: []model.Choice{
						{Text: "POST"},
						{Text: "PUT", IsCorrect: true},
						{Text: "PATCH"},
					},
				},
				{
					Text:        "What does a 409 status code indicate?",
					Explanation: "409 Conflict signals the request clashes with the current resource state.",
					Choices: []model.Choice{
						{Text: "Resource not found"},
						{Text: "Conflict with current state", IsCorrect: true},
						{Text: "Server error"},
						{Text: "Unauthorized"},
					},
				},
				{
					Text:        "Which header lets a client send a bearer token?",
					Explanation: "Authorization carries credentials such as 'Bearer <token>'.",
					Choices: []model.Choice{
						{Text: "Authorization", IsCorrect: true},
						{Text: "Content-Type"},
						{Text: "Accept"},
						{Text: "Cookie"},
					},
				},
				{
					Text:        "What does the Cache-Control: no-store directive mean?",
					Explanation: "no-store forbids any cache from keeping the response at all.",
					Choices: []model.Choice{
						{Text: "Cache but revalidate each time"},
						{Text: "Never store the response anywhere", IsCorrect: true},
						{Text: "Store only on the origin server"},
					},
				},
			}),
		},
		{
			ID:          "quiz_security_essentials",
			ThemeID:     "theme_security",
			Title:       "Security Essentials",
			Description: "Password storage, TLS and common vulnerabilities.",
			Level:       "intermediate",
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
			Questions: questionsJSON([]model.Question{
				{
					Text:        "How should passwords be stored server-side?",
					Explanation: "Slow adaptive hashes like bcrypt resist brute-force on leaked databases.",
					Choices: []model.Choice{
						{Text: "Encrypted with AES"},
						{Text: "Hashed with a fast hash like MD5"},
						{Text: "Hashed with an adaptive function like bcrypt", IsCorrect: true},
						{Text: "Base64 encoded"},
					},
				},
				{
					Text:        "Which attack does parameterized SQL prevent?",
					Explanation: "Bound parameters keep user input out of the query structure.",
					Choices: []model.Choice{
						{Text: "Cross-site scripting"},
						{Text: "SQL injection", IsCorrect: true},
						{Text: "CSRF"},
					},
				},
				{
					Text:        "What does TLS provide between client and server?",
					Explanation: "TLS gives confidentiality, integrity and server authentication.",
					Choices: []model.Choice{
						{Text: "Only encryption"},
						{Text: "Encryption, integrity and authentication", IsCorrect: true},
						{Text: "Only authentication"},
						{Text: "Compression"},
					},
				},
			}),
		},
		{
			ID:          "quiz_containers_101",
			ThemeID:     "theme_cloud",
			Title:       "Containers 101",
			Description: "Images, registries and orchestration basics.",
			Level:       "beginner",
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
			Questions: questionsJSON([]model.Question{
				{
					Text:        "What is a container image?",
					Explanation: "An image is an immutable, layered filesystem plus metadata.",
					Choices: []model.Choice{
						{Text: "A running process"},
						{Text: "An immutable packaged filesystem", IsCorrect: true},
						{Text: "A virtual machine snapshot"},
					},
				},
				{
					Text:        "Which component schedules pods in Kubernetes?",
					Explanation: "kube-scheduler assigns pods to nodes based on constraints.",
					Choices: []model.Choice{
						{Text: "kubelet"},
						{Text: "etcd"},
						{Text: "kube-scheduler", IsCorrect: true},
						{Text: "kube-proxy"},
					},
				},
				{
					Text:        "What does a Dockerfile RUN instruction do?",
					Explanation: "RUN executes a command at build time and commits the result as a layer.",
					Choices: []model.Choice{
						{Text: "Runs a command at build time", IsCorrect: true},
						{Text: "Runs a command at container start"},
						{Text: "Declares the exposed port"},
					},
				},
			}),
		},
	}
}
