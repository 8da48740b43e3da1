package database

import (
	"context"

	"unimind_backend/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type seedQuestion struct {
	prompt      string
	choices     []string
	correct     int
	difficulty  string
	explanation string
}

type seedTopic struct {
	name        string
	description string
	questions   []seedQuestion
}

var demoCourse = model.Course{
	Code:        "CS101",
	Name:        "Introduction to Programming",
	Description: "Core programming concepts for the focus gate",
}

var demoTopics = []seedTopic{
	{
		name:        "Variables and Types",
		description: "Declaring values and choosing types",
		questions: []seedQuestion{
			{"Which type holds a whole number?", []string{"float", "int", "string", "bool"}, 1, "easy", "int stores integers without a fractional part."},
			{"What does a variable name refer to?", []string{"A memory location", "A CPU register", "A file", "A function"}, 0, "easy", "A variable names a location holding a value."},
			{"Which literal is a string?", []string{"42", "true", "\"42\"", "4.2"}, 2, "medium", "Quotes make a string literal."},
		},
	},
	{
		name:        "Control Flow",
		description: "Branches and loops",
		questions: []seedQuestion{
			{"Which statement repeats while a condition holds?", []string{"if", "switch", "for", "return"}, 2, "easy", "A loop repeats its body while the condition is true."},
			{"How many times does `for i := 0; i < 3; i++` run?", []string{"2", "3", "4", "Forever"}, 1, "medium", "i takes the values 0, 1 and 2."},
			{"What does `break` do inside a loop?", []string{"Skips one iteration", "Exits the loop", "Restarts the loop", "Nothing"}, 1, "medium", "break leaves the innermost loop."},
		},
	},
	{
		name:        "Recursion",
		description: "Functions that call themselves",
		questions: []seedQuestion{
			{"What prevents infinite recursion?", []string{"A base case", "A global variable", "A loop", "A pointer"}, 0, "medium", "The base case stops further calls."},
			{"fib(5) with fib(0)=0, fib(1)=1 is", []string{"3", "5", "8", "13"}, 1, "hard", "0, 1, 1, 2, 3, 5."},
			{"Deep recursion without a base case usually ends in", []string{"A stack overflow", "A syntax error", "A deadlock", "A memory leak"}, 0, "hard", "Each call consumes stack space."},
		},
	},
}

// Seed 写入示例课程、知识点和题目，重复执行不会产生重复数据
func Seed(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		course := demoCourse
		if err := tx.Where(model.Course{Code: course.Code}).FirstOrCreate(&course).Error; err != nil {
			return err
		}
		for _, st := range demoTopics {
			topic := model.Topic{CourseCode: course.Code, Name: st.name}
			if err := tx.Where(model.Topic{CourseCode: course.Code, Name: st.name}).
				Attrs(model.Topic{Description: st.description}).
				FirstOrCreate(&topic).Error; err != nil {
				return err
			}
			var n int64
			if err := tx.Model(&model.Question{}).Where("topic_id = ?", topic.ID).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				continue
			}
			for _, sq := range st.questions {
				q := model.Question{
					TopicID:      topic.ID,
					Prompt:       sq.prompt,
					Choices:      datatypes.JSONSlice[string](sq.choices),
					CorrectIndex: sq.correct,
					Difficulty:   sq.difficulty,
					Explanation:  sq.explanation,
				}
				if err := tx.Create(&q).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}
