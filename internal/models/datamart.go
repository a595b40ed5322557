package models

import "time"

// Star schema of the reporting datamart. Every table has an integer surrogate
// key; natural keys are indexed but not unique at the database level.

type DimUser struct {
	UserKey  uint   `json:"user_key" gorm:"primaryKey;column:user_key"`
	UserID   uint   `json:"user_id" gorm:"not null;index"`
	FullName string `json:"full_name" gorm:"size:201"`
}

func (DimUser) TableName() string {
	return "dim_user"
}

type DimTime struct {
	TimeKey uint      `json:"time_key" gorm:"primaryKey;column:time_key"`
	Date    time.Time `json:"date" gorm:"type:date;not null;index"`
	Year    int       `json:"year" gorm:"not null;index:idx_dim_time_year_month"`
	Month   int       `json:"month" gorm:"not null;index:idx_dim_time_year_month"`
}

func (DimTime) TableName() string {
	return "dim_time"
}

type DimTopic struct {
	TopicKey   uint   `json:"topic_key" gorm:"primaryKey;column:topic_key"`
	TopicID    uint   `json:"topic_id" gorm:"not null;index"`
	CourseID   uint   `json:"course_id" gorm:"not null;index"`
	CourseName string `json:"course_name" gorm:"size:200"`
	TopicName  string `json:"topic_name" gorm:"size:200"`
}

func (DimTopic) TableName() string {
	return "dim_topic"
}

// DimMaterial is maintained by the material consumption loader, the ETL never truncates it.
type DimMaterial struct {
	MaterialKey  uint   `json:"material_key" gorm:"primaryKey;column:material_key"`
	MaterialID   uint   `json:"material_id" gorm:"not null;index"`
	MaterialType string `json:"material_type" gorm:"size:50;not null"`
}

func (DimMaterial) TableName() string {
	return "dim_material"
}

type FactSimulationResult struct {
	ID             uint    `json:"id" gorm:"primaryKey"`
	UserKey        uint    `json:"user_key" gorm:"not null;index"`
	TimeKey        uint    `json:"time_key" gorm:"not null;index"`
	TopicKey       uint    `json:"topic_key" gorm:"not null;index"`
	TotalQuestions int     `json:"total_questions"`
	CorrectCount   int     `json:"correct_count"`
	IncorrectCount int     `json:"incorrect_count"`
	BlankCount     int     `json:"blank_count"`
	TotalTime      int     `json:"total_time"` // seconds
	TotalScore     float64 `json:"total_score"`
}

func (FactSimulationResult) TableName() string {
	return "fact_simulation_results"
}

type FactMaterialConsumption struct {
	ID          uint `json:"id" gorm:"primaryKey"`
	MaterialKey uint `json:"material_key" gorm:"not null;index"`
	TimeSpent   int  `json:"time_spent"` // seconds
	Frequency   int  `json:"frequency"`
}

func (FactMaterialConsumption) TableName() string {
	return "fact_material_consumption"
}

// DatamartTables lists every datamart model for migrations.
func DatamartTables() []interface{} {
	return []interface{}{
		&DimUser{},
		&DimTime{},
		&DimTopic{},
		&DimMaterial{},
		&FactSimulationResult{},
		&FactMaterialConsumption{},
	}
}

// SourceTables lists the transactional models the service reads.
func SourceTables() []interface{} {
	return []interface{}{
		&Role{},
		&User{},
		&Course{},
		&Topic{},
		&Question{},
		&SimulationAttempt{},
		&SimulationAnswer{},
	}
}
