package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Candidate 候选人表，一条记录对应一份成功解析入库的简历分片
type Candidate struct {
	CandidateID      string         `gorm:"type:char(36);primaryKey"`
	OwnerUserID      string         `gorm:"type:char(36);not null;index:idx_candidates_owner;uniqueIndex:idx_candidates_owner_email,priority:1"`
	Name             string         `gorm:"type:varchar(255);not null"`
	Email            string         `gorm:"type:varchar(255);not null;uniqueIndex:idx_candidates_owner_email,priority:2"`
	Phone            string         `gorm:"type:varchar(50)"`
	SkillsJSON       datatypes.JSON `gorm:"type:json"`
	EducationJSON    datatypes.JSON `gorm:"type:json"`
	ExperienceYears  int            `gorm:"default:0"`
	ScoreSummaryJSON datatypes.JSON `gorm:"type:json"`
	BestMatchJobID   *string        `gorm:"type:char(36);index:idx_candidates_best_match_job"`
	BestMatchScore   int            `gorm:"default:0"`
	Status           string         `gorm:"type:varchar(50);default:'new';index:idx_candidates_status"`
	OriginalFilename string         `gorm:"type:varchar(255)"`
	StoredFilePath   string         `gorm:"type:varchar(1024)"`
	CreatedAt        time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt        time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (Candidate) TableName() string {
	return "candidates"
}

// JobRole 岗位定义表
type JobRole struct {
	JobRoleID          string         `gorm:"type:char(36);primaryKey"`
	OwnerUserID        string         `gorm:"type:char(36);not null;index:idx_job_roles_owner"`
	Title              string         `gorm:"type:varchar(255);not null"`
	RequiredSkillsJSON datatypes.JSON `gorm:"type:json"`
	ExperienceLevel    string         `gorm:"type:varchar(20);not null"`
	Status             string         `gorm:"type:varchar(50);default:'ACTIVE';index:idx_job_roles_status"`
	CreatedAt          time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt          time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (JobRole) TableName() string {
	return "job_roles"
}

// ToJSON Helper function to convert any value to datatypes.JSON
func ToJSON(v interface{}) (datatypes.JSON, error) {
	bytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes, nil
}
