package quiz

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidOption signals an answer that is not one of the question options.
	ErrInvalidOption = errors.New("invalid option")
	// ErrFinished signals an answer after the last question.
	ErrFinished = errors.New("quiz finished")
)

// Question is a multiple choice question.
type Question struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Correct int      `json:"-"`
}

// Bank returns the question bank of the guide.
func Bank() []Question {
	return []Question{
		{
			Text:    "The field of study that helps to develop techniques to help computers 'see' is:",
			Options: []string{"Python", "Convolution", "Computer Vision", "Data Analysis"},
			Correct: 2,
		},
		{
			Text:    "Task of taking an input image and outputting/assigning a class label that best describes the image is:",
			Options: []string{"Image classification", "Image identification", "Image localization", "Image prioritization"},
			Correct: 0,
		},
		{
			Text:    "Identify the incorrect option related to CV basics:",
			Options: []string{"CV involves analyzing digital images.", "A digital image is a sequence of numbers.", "RGB color code is used ONLY for images taken using cameras.", "Image is converted into pixels."},
			Correct: 2,
		},
		{
			Text:    "The process of capturing a digital image or video using a digital camera/scanner is related to:",
			Options: []string{"Image Acquisition", "Preprocessing", "Feature Extraction", "Detection"},
			Correct: 0,
		},
		{
			Text:    "Which algorithm may be used for supervised learning in computer vision?",
			Options: []string{"KNN", "K-means", "K-fold", "KEAM"},
			Correct: 0,
		},
		{
			Text:    "A computer sees an image as a series of:",
			Options: []string{"colors", "pixels", "objects", "all of the above"},
			Correct: 1,
		},
		{
			Text:    "______ empowers computer vision systems to extract valuable insights and drive intelligent decision-making.",
			Options: []string{"Low level processing", "High insights", "High-level processing", "None of the above"},
			Correct: 2,
		},
		{
			Text:    "In Feature Extraction, which technique identifies abrupt changes in pixel intensity and highlights boundaries?",
			Options: []string{"Edge detection", "Corner detection", "Texture Analysis", "boundary detection"},
			Correct: 0,
		},
		{
			// edge detection belongs to feature extraction
			Text:    "Choose the incorrect statement related to preprocessing:",
			Options: []string{"It enhances quality", "Noise reduction is used", "Histogram equalization adjusts contrast", "Edge detection is ensured in images"},
			Correct: 3,
		},
		{
			Text:    "1 byte = ____ bits",
			Options: []string{"10", "8", "2", "1"},
			Correct: 1,
		},
	}
}

// Session walks a user through the questions in order.
type Session struct {
	questions []Question
	current   int
	score     int
	done      bool
}

// NewSession starts a quiz over the given questions.
func NewSession(questions []Question) *Session {
	return &Session{
		questions: questions,
		done:      len(questions) == 0,
	}
}

// Outcome is the feedback for a single answer.
type Outcome struct {
	Question int  `json:"question"`
	Selected int  `json:"selected"`
	Correct  int  `json:"correct"`
	Right    bool `json:"right"`
	Done     bool `json:"done"`
}

// Current returns the index and the question being asked.
func (s *Session) Current() (int, Question, error) {
	if s.done {
		return s.current, Question{}, ErrFinished
	}
	return s.current, s.questions[s.current], nil
}

// Answer scores the selected option and moves to the next question.
func (s *Session) Answer(option int) (Outcome, error) {
	if s.done {
		return Outcome{}, ErrFinished
	}
	q := s.questions[s.current]
	if option < 0 || option >= len(q.Options) {
		return Outcome{}, fmt.Errorf("option %d outside of [0,%d): %w", option, len(q.Options), ErrInvalidOption)
	}
	outcome := Outcome{
		Question: s.current,
		Selected: option,
		Correct:  q.Correct,
		Right:    option == q.Correct,
	}
	if outcome.Right {
		s.score++
	}
	if s.current < len(s.questions)-1 {
		s.current++
	} else {
		s.done = true
	}
	outcome.Done = s.done
	return outcome, nil
}

// Result is the score so far.
type Result struct {
	Score    int     `json:"score"`
	Total    int     `json:"total"`
	Answered int     `json:"answered"`
	Percent  float64 `json:"percent"`
	Done     bool    `json:"done"`
}

// Result returns the current score.
func (s *Session) Result() Result {
	answered := s.current
	if s.done {
		answered = len(s.questions)
	}
	r := Result{
		Score:    s.score,
		Total:    len(s.questions),
		Answered: answered,
		Done:     s.done,
	}
	if r.Total > 0 {
		r.Percent = 100 * float64(r.Score) / float64(r.Total)
	}
	return r
}

// Reset starts the quiz over.
func (s *Session) Reset() {
	s.current = 0
	s.score = 0
	s.done = len(s.questions) == 0
}
