package models

import "time"

// FeedbackStatus константы статусов отзывов
const (
	FeedbackStatusNew     = "new"
	FeedbackStatusDeleted = "deleted"
)

// Ограничения рейтинга
const (
	MinRating     = 1
	MaxRating     = 5
	DefaultRating = 5
)

// Параметры жизненного цикла OTP
const (
	OTPCodeLength = 6
	OTPTTL        = 10 * time.Minute
	// OTPResendCooldown - сколько countdown'а должно пройти до разрешения повторной отправки.
	OTPResendCooldown = 9 * time.Minute
	OTPSweepInterval  = 5 * time.Minute
)
