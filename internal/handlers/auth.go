package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ThalesYuji/tcc-2025-sub000/internal/models"
	"github.com/ThalesYuji/tcc-2025-sub000/internal/utils"
	"github.com/ThalesYuji/tcc-2025-sub000/internal/workflow"
)

type AuthHandler struct {
	DB        *gorm.DB
	JWTSecret string
	Expires   int
}

type RegisterReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Role     string `json:"role"` // client / freelancer (admin nunca via registro público)
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	phone := strings.TrimSpace(req.Phone)
	password := strings.TrimSpace(req.Password)

	role := models.RoleClient
	if strings.ToLower(strings.TrimSpace(req.Role)) == string(models.RoleFreelancer) {
		role = models.RoleFreelancer
	}

	errs := workflow.FieldErrors{}
	if name == "" {
		errs.Add("name", "Nome é obrigatório")
	}
	if email == "" {
		errs.Add("email", "E-mail é obrigatório")
	} else if !strings.Contains(email, "@") {
		errs.Add("email", "Formato de e-mail inválido")
	}
	if password == "" {
		errs.Add("password", "Senha é obrigatória")
	} else if len(password) < 6 {
		errs.Add("password", "Senha deve ter no mínimo 6 caracteres")
	}
	if phone != "" && len(phone) < 8 {
		errs.Add("phone", "Telefone inválido")
	}
	if len(errs) > 0 {
		return respondError(c, &workflow.ValidationError{Fields: errs})
	}

	var existing models.User
	if err := h.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		return respondError(c, workflow.NewValidationError("email", "E-mail já cadastrado"))
	} else if err != gorm.ErrRecordNotFound {
		return respondError(c, err)
	}

	pw, err := utils.HashPassword(password)
	if err != nil {
		return respondError(c, err)
	}

	u := models.User{
		Name:     name,
		Email:    email,
		Password: pw,
		Role:     role,
		IsActive: true,
		Phone:    phone,
	}

	if err := h.DB.Create(&u).Error; err != nil {
		return respondError(c, err)
	}

	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.Role), h.Expires)
	if err != nil {
		return respondError(c, err)
	}

	h.setAuthCookie(c, token)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Cadastro realizado com sucesso",
		"data": fiber.Map{
			"user": fiber.Map{
				"id":    u.ID,
				"name":  u.Name,
				"email": u.Email,
				"phone": u.Phone,
				"role":  u.Role,
			},
		},
	})
}

type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	password := strings.TrimSpace(req.Password)

	errs := workflow.FieldErrors{}
	if email == "" {
		errs.Add("email", "E-mail é obrigatório")
	}
	if password == "" {
		errs.Add("password", "Senha é obrigatória")
	}
	if len(errs) > 0 {
		return respondError(c, &workflow.ValidationError{Fields: errs})
	}

	var u models.User
	if err := h.DB.Where("email = ?", email).First(&u).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "E-mail ou senha incorretos",
		})
	}

	if !u.IsActive {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Conta inativa",
		})
	}

	if !utils.CheckPassword(u.Password, password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "E-mail ou senha incorretos",
		})
	}

	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.Role), h.Expires)
	if err != nil {
		return respondError(c, err)
	}

	h.setAuthCookie(c, token)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Login realizado com sucesso",
		"data": fiber.Map{
			"user": fiber.Map{
				"id":    u.ID,
				"name":  u.Name,
				"email": u.Email,
				"role":  u.Role,
			},
		},
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     "pf_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   false,
		SameSite: "Lax",
	})

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Logout realizado com sucesso",
	})
}

func (h *AuthHandler) setAuthCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     "pf_token",
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   false,
		SameSite: "Lax",
		MaxAge:   h.Expires * 60,
	})
}
