package stage

import (
	"time"
)

// StageBase carries the keys every stage table shares. One row per entry.
type StageBase struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	EntryID   int64     `json:"entry_id" gorm:"not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null;autoUpdateTime"`
}

func (b *StageBase) base() *StageBase { return b }

// Record is implemented by every stage model.
type Record interface {
	TableName() string
	base() *StageBase
}

type BasicInfo struct {
	StageBase
	DanceStyle              string `json:"dance_style" gorm:"type:varchar(100);not null;default:''" validate:"max=100"`
	Category                string `json:"category" gorm:"type:varchar(20);not null;default:''" validate:"omitempty,oneof=solo duo group"`
	TeamName                string `json:"team_name" gorm:"type:text;not null;default:''" validate:"max=100"`
	RepresentativeName      string `json:"representative_name" gorm:"type:text;not null;default:''" validate:"max=50"`
	RepresentativeFurigana  string `json:"representative_furigana" gorm:"type:text;not null;default:''" validate:"omitempty,max=50,kana"`
	RepresentativeEmail     string `json:"representative_email" gorm:"type:text;not null;default:''" validate:"omitempty,max=255,email"`
	RepresentativePhone     string `json:"representative_phone" gorm:"type:varchar(20);not null;default:''" validate:"omitempty,phone"`
	RepresentativeBirthdate string `json:"representative_birthdate" gorm:"type:varchar(10);not null;default:''" validate:"omitempty,ymd"`
	PartnerName             string `json:"partner_name" gorm:"type:text;not null;default:''" validate:"max=50"`
	PartnerFurigana         string `json:"partner_furigana" gorm:"type:text;not null;default:''" validate:"omitempty,max=50,kana"`
	PartnerBirthdate        string `json:"partner_birthdate" gorm:"type:varchar(10);not null;default:''" validate:"omitempty,ymd"`
	GuardianName            string `json:"guardian_name" gorm:"type:text;not null;default:''" validate:"max=50"`
	GuardianPhone           string `json:"guardian_phone" gorm:"type:varchar(20);not null;default:''" validate:"omitempty,phone"`
	GuardianEmail           string `json:"guardian_email" gorm:"type:text;not null;default:''" validate:"omitempty,max=255,email"`
	AgreementChecked        bool   `json:"agreement_checked" gorm:"not null;default:false"`
	PrivacyPolicyChecked    bool   `json:"privacy_policy_checked" gorm:"not null;default:false"`
	MediaReleaseChecked     bool   `json:"media_release_checked" gorm:"not null;default:false"`
}

func (BasicInfo) TableName() string { return "basic_info" }

type PreliminaryInfo struct {
	StageBase
	WorkTitle             string `json:"work_title" gorm:"type:text;not null;default:''" validate:"max=100"`
	WorkTitleKana         string `json:"work_title_kana" gorm:"type:text;not null;default:''" validate:"omitempty,max=100,kana"`
	WorkStory             string `json:"work_story" gorm:"type:text;not null;default:''" validate:"max=500"`
	MusicTitle            string `json:"music_title" gorm:"type:text;not null;default:''" validate:"max=100"`
	ArtistName            string `json:"artist_name" gorm:"type:text;not null;default:''" validate:"max=100"`
	MusicRightsCleared    bool   `json:"music_rights_cleared" gorm:"not null;default:false"`
	ChoreographerName     string `json:"choreographer_name" gorm:"type:text;not null;default:''" validate:"max=50"`
	ChoreographerFurigana string `json:"choreographer_furigana" gorm:"type:text;not null;default:''" validate:"omitempty,max=50,kana"`
}

func (PreliminaryInfo) TableName() string { return "preliminary_info" }

// PerformanceDetails is the block semifinals and finals share. The field
// groups match the copy groups finals can take over from semifinals.
type PerformanceDetails struct {
	// music
	MusicTitle   string `json:"music_title" gorm:"type:text;not null;default:''" validate:"max=100"`
	CdTitle      string `json:"cd_title" gorm:"type:text;not null;default:''" validate:"max=100"`
	Artist       string `json:"artist" gorm:"type:text;not null;default:''" validate:"max=100"`
	RecordNumber string `json:"record_number" gorm:"type:varchar(50);not null;default:''" validate:"max=50"`
	JasracCode   string `json:"jasrac_code" gorm:"type:varchar(20);not null;default:''" validate:"max=20"`
	MusicType    string `json:"music_type" gorm:"type:varchar(20);not null;default:''" validate:"omitempty,oneof=cd download original other"`

	// sound
	SoundStartTiming      string `json:"sound_start_timing" gorm:"type:text;not null;default:''" validate:"max=200"`
	ChaserSongDesignation string `json:"chaser_song_designation" gorm:"type:varchar(20);not null;default:''" validate:"omitempty,oneof=upload none"`
	FadeOutStartTime      string `json:"fade_out_start_time" gorm:"type:varchar(20);not null;default:''" validate:"max=20"`
	FadeOutCompleteTime   string `json:"fade_out_complete_time" gorm:"type:varchar(20);not null;default:''" validate:"max=20"`

	// lighting
	Scene1Time      string `json:"scene1_time" gorm:"type:varchar(20);not null;default:''" validate:"max=20"`
	Scene1Trigger   string `json:"scene1_trigger" gorm:"type:text;not null;default:''" validate:"max=200"`
	Scene1ColorType string `json:"scene1_color_type" gorm:"type:varchar(50);not null;default:''" validate:"max=50"`
	Scene1Color1    string `json:"scene1_color1" gorm:"type:varchar(50);not null;default:''" validate:"max=50"`
	Scene1Notes     string `json:"scene1_notes" gorm:"type:text;not null;default:''" validate:"max=500"`
	Scene2Time      string `json:"scene2_time" gorm:"type:varchar(20);not null;default:''" validate:"max=20"`
	Scene2Trigger   string `json:"scene2_trigger" gorm:"type:text;not null;default:''" validate:"max=200"`
	Scene2ColorType string `json:"scene2_color_type" gorm:"type:varchar(50);not null;default:''" validate:"max=50"`
	Scene2Color1    string `json:"scene2_color1" gorm:"type:varchar(50);not null;default:''" validate:"max=50"`
	Scene2Notes     string `json:"scene2_notes" gorm:"type:text;not null;default:''" validate:"max=500"`
	Scene3Time      string `json:"scene3_time" gorm:"type:varchar(20);not null;default:''" validate:"max=20"`
	Scene3Trigger   string `json:"scene3_trigger" gorm:"type:text;not null;default:''" validate:"max=200"`
	Scene3ColorType string `json:"scene3_color_type" gorm:"type:varchar(50);not null;default:''" validate:"max=50"`
	Scene3Color1    string `json:"scene3_color1" gorm:"type:varchar(50);not null;default:''" validate:"max=50"`
	Scene3Notes     string `json:"scene3_notes" gorm:"type:text;not null;default:''" validate:"max=500"`

	// choreographer
	ChoreographerName      string `json:"choreographer_name" gorm:"type:text;not null;default:''" validate:"max=50"`
	ChoreographerFurigana  string `json:"choreographer_furigana" gorm:"type:text;not null;default:''" validate:"omitempty,max=50,kana"`
	Choreographer2Name     string `json:"choreographer2_name" gorm:"type:text;not null;default:''" validate:"max=50"`
	Choreographer2Furigana string `json:"choreographer2_furigana" gorm:"type:text;not null;default:''" validate:"omitempty,max=50,kana"`
}

type SemifinalsInfo struct {
	StageBase
	PerformanceDetails
	RefundBankName      string `json:"refund_bank_name" gorm:"type:text;not null;default:''" validate:"max=50"`
	RefundBranchName    string `json:"refund_branch_name" gorm:"type:text;not null;default:''" validate:"max=50"`
	RefundAccountType   string `json:"refund_account_type" gorm:"type:varchar(20);not null;default:''" validate:"omitempty,oneof=futsu toza"`
	RefundAccountNumber string `json:"refund_account_number" gorm:"type:varchar(20);not null;default:''" validate:"omitempty,numeric,max=8"`
	RefundAccountHolder string `json:"refund_account_holder" gorm:"type:text;not null;default:''" validate:"omitempty,max=50,kana"`
}

func (SemifinalsInfo) TableName() string { return "semifinals_info" }

type FinalsInfo struct {
	StageBase
	PerformanceDetails
	MusicOption         string `json:"music_option" gorm:"type:varchar(20);not null;default:''" validate:"omitempty,oneof=same different"`
	SoundOption         string `json:"sound_option" gorm:"type:varchar(20);not null;default:''" validate:"omitempty,oneof=same different"`
	LightingOption      string `json:"lighting_option" gorm:"type:varchar(20);not null;default:''" validate:"omitempty,oneof=same different"`
	ChoreographerOption string `json:"choreographer_option" gorm:"type:varchar(20);not null;default:''" validate:"omitempty,oneof=same different"`
}

func (FinalsInfo) TableName() string { return "finals_info" }

type SnsInfo struct {
	StageBase
	IntroductionText  string `json:"introduction_text" gorm:"type:text;not null;default:''" validate:"max=1000"`
	PracticeVideoNote string `json:"practice_video_note" gorm:"type:text;not null;default:''" validate:"max=500"`
	AccountHandle     string `json:"account_handle" gorm:"type:varchar(100);not null;default:''" validate:"max=100"`
}

func (SnsInfo) TableName() string { return "sns_info" }

type ApplicationsInfo struct {
	StageBase
	PaymentMethod      string `json:"payment_method" gorm:"type:varchar(20);not null;default:''" validate:"omitempty,oneof=bank_transfer card onsite"`
	PayerName          string `json:"payer_name" gorm:"type:text;not null;default:''" validate:"max=50"`
	TotalAmount        string `json:"total_amount" gorm:"type:varchar(20);not null;default:''" validate:"omitempty,numeric,max=10"`
	PaymentDate        string `json:"payment_date" gorm:"type:varchar(10);not null;default:''" validate:"omitempty,ymd"`
	RelatedTicketCount string `json:"related_ticket_count" gorm:"type:varchar(5);not null;default:''" validate:"omitempty,numeric,max=3"`
	CompanionCount     string `json:"companion_count" gorm:"type:varchar(5);not null;default:''" validate:"omitempty,numeric,max=3"`
	MakeupRequested    bool   `json:"makeup_requested" gorm:"not null;default:false"`
}

func (ApplicationsInfo) TableName() string { return "applications_info" }

// NewRecord returns an empty model for a stage.
func NewRecord(s Stage) Record {
	switch s {
	case StageBasicInfo:
		return &BasicInfo{}
	case StagePreliminary:
		return &PreliminaryInfo{}
	case StageSemifinals:
		return &SemifinalsInfo{}
	case StageFinals:
		return &FinalsInfo{}
	case StageSns:
		return &SnsInfo{}
	case StageApplications:
		return &ApplicationsInfo{}
	}
	return nil
}

// Models lists every stage table for migrations.
func Models() []interface{} {
	return []interface{}{
		&BasicInfo{},
		&PreliminaryInfo{},
		&SemifinalsInfo{},
		&FinalsInfo{},
		&SnsInfo{},
		&ApplicationsInfo{},
	}
}
