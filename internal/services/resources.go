package services

type CrisisHotline struct {
	Name      string `json:"name"`
	Number    string `json:"number,omitempty"`
	Contact   string `json:"contact,omitempty"`
	Available string `json:"available"`
}

type CopingTechnique struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Steps       []string `json:"steps"`
}

// ResourceCatalog is the static help content served by /api/resources.
type ResourceCatalog struct {
	CrisisHotlines   []CrisisHotline   `json:"crisis_hotlines"`
	CopingTechniques []CopingTechnique `json:"coping_techniques"`
	SelfCareTips     []string          `json:"self_care_tips"`
}

var resourceCatalog = ResourceCatalog{
	CrisisHotlines: []CrisisHotline{
		{Name: "National Suicide Prevention Lifeline", Number: "988", Available: "24/7"},
		{Name: "Crisis Text Line", Contact: "Text HOME to 741741", Available: "24/7"},
		{Name: "SAMHSA National Helpline", Number: "1-800-662-4357", Available: "24/7"},
	},
	CopingTechniques: []CopingTechnique{
		{
			Name:        "Deep Breathing",
			Description: "4-7-8 breathing technique for anxiety relief",
			Steps:       []string{"Inhale for 4 counts", "Hold for 7 counts", "Exhale for 8 counts", "Repeat 3-4 times"},
		},
		{
			Name:        "Grounding Exercise",
			Description: "5-4-3-2-1 technique to stay present",
			Steps: []string{
				"5 things you can see",
				"4 things you can touch",
				"3 things you can hear",
				"2 things you can smell",
				"1 thing you can taste",
			},
		},
		{
			Name:        "Progressive Muscle Relaxation",
			Description: "Systematically tense and relax muscle groups",
			Steps:       []string{"Start with toes", "Tense for 5 seconds", "Release and relax", "Move up through body"},
		},
	},
	SelfCareTips: []string{
		"Maintain a regular sleep schedule",
		"Stay hydrated and eat nutritious meals",
		"Engage in regular physical activity",
		"Practice mindfulness or meditation",
		"Connect with supportive friends and family",
		"Limit social media and news consumption",
		"Engage in hobbies you enjoy",
		"Consider journaling your thoughts and feelings",
	},
}

// Resources returns the resource catalog. Callers must not modify it.
func Resources() ResourceCatalog {
	return resourceCatalog
}
