package repository

import (
	"context"

	"unimind_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CourseRepository struct {
	DB *gorm.DB
}

// NewCourseRepository 创建课程仓库实例
func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) WithTx(tx *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: tx}
}

// Upsert 创建课程，已存在时更新名称和描述
func (r *CourseRepository) Upsert(ctx context.Context, c *model.Course) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description"}),
	}).Create(c).Error
}

func (r *CourseRepository) List(ctx context.Context) ([]model.Course, error) {
	var courses []model.Course
	err := r.DB.WithContext(ctx).Order("code").Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) FindByCode(ctx context.Context, code string) (*model.Course, error) {
	var c model.Course
	if err := r.DB.WithContext(ctx).First(&c, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CourseRepository) CreateTopic(ctx context.Context, t *model.Topic) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func (r *CourseRepository) FindTopic(ctx context.Context, id string) (*model.Topic, error) {
	var t model.Topic
	if err := r.DB.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// FindTopicByName 按课程和名称查找知识点，不存在时返回 nil
func (r *CourseRepository) FindTopicByName(ctx context.Context, courseCode, name string) (*model.Topic, error) {
	var t model.Topic
	err := r.DB.WithContext(ctx).
		Where("course_code = ? AND name = ?", courseCode, name).
		Limit(1).Find(&t).Error
	if err != nil || t.ID == "" {
		return nil, err
	}
	return &t, nil
}

func (r *CourseRepository) TopicsByCourses(ctx context.Context, codes []string) ([]model.Topic, error) {
	var topics []model.Topic
	if len(codes) == 0 {
		return topics, nil
	}
	err := r.DB.WithContext(ctx).Where("course_code IN ?", codes).Order("course_code, name, id").Find(&topics).Error
	return topics, err
}

// Enrol 选课，重复选课返回 ErrDuplicate
func (r *CourseRepository) Enrol(ctx context.Context, userID uint, code string) error {
	res := r.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.Enrolment{UserID: userID, CourseCode: code})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDuplicate
	}
	return nil
}

// Unenrol 退课，返回是否删除了记录
func (r *CourseRepository) Unenrol(ctx context.Context, userID uint, code string) (bool, error) {
	res := r.DB.WithContext(ctx).
		Where("user_id = ? AND course_code = ?", userID, code).
		Delete(&model.Enrolment{})
	return res.RowsAffected > 0, res.Error
}

func (r *CourseRepository) EnrolledCodes(ctx context.Context, userID uint) ([]string, error) {
	var codes []string
	err := r.DB.WithContext(ctx).Model(&model.Enrolment{}).
		Where("user_id = ?", userID).
		Order("course_code").
		Pluck("course_code", &codes).Error
	return codes, err
}

func (r *CourseRepository) IsEnrolled(ctx context.Context, userID uint, code string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Enrolment{}).
		Where("user_id = ? AND course_code = ?", userID, code).
		Count(&n).Error
	return n > 0, err
}
