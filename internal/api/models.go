package api

// MessageResponse is the body most endpoints answer with
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginRequest is the payload for POST /auth/login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest is the payload for POST /auth/register
type RegisterRequest struct {
	Username  string `json:"username"`
	UserEmail string `json:"useremail"`
	Password  string `json:"password"`
}

// ForgotPasswordRequest is the payload for POST /auth/forgetpassword
type ForgotPasswordRequest struct {
	UserEmail string `json:"useremail"`
}

// VerifyOTPRequest is the payload for POST /auth/otp_verifications
type VerifyOTPRequest struct {
	OTP       string `json:"otp"`
	UserEmail string `json:"useremail"`
}

// ResetPasswordRequest is the payload for POST /auth/resetPassword
type ResetPasswordRequest struct {
	UserEmail   string `json:"useremail"`
	NewPassword string `json:"newPassword"`
}

// Category is a tour category as the server stores it.
// The wire name "catagories" is the server's spelling and must stay as is.
type Category struct {
	Name string `json:"catagories"`
	ID   string `json:"_id"`
}

type createCategoryRequest struct {
	CatagoryName string `json:"catagoryName"`
}

type deleteCategoryRequest struct {
	Name string `json:"name"`
}

// UploadResponse is returned by POST /api/uploads
type UploadResponse struct {
	FilePath string `json:"filePath"`
}

// Surrounding is a nearby place shown with a tour
type Surrounding struct {
	Title    string `json:"title"`
	Distance string `json:"distance"`
}

// Tour is the full payload for POST /api/tours
type Tour struct {
	PackageName    string        `json:"packageName"`
	Location       string        `json:"location"`
	Price          float64       `json:"price"`
	TotalNights    int           `json:"totalNights"`
	Category       string        `json:"category"`
	Policies       string        `json:"policies"`
	HotelDetails   string        `json:"hotelDetails"`
	ContactDetails string        `json:"contactDetails"`
	IsPremium      bool          `json:"isPremium"`
	Review         string        `json:"review"`
	Expression     string        `json:"expression"`
	Amenities      []string      `json:"amenities"`
	Surroundings   []Surrounding `json:"surroundings"`
	Image          string        `json:"image"`
}

// TourRecord is the created tour as echoed by the server
type TourRecord struct {
	ID string `json:"_id"`
	Tour
}
