package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/techno-hippies/heaven-sessions/internal/auth"
	"github.com/techno-hippies/heaven-sessions/internal/config"
	"github.com/techno-hippies/heaven-sessions/internal/http/dto"
	"github.com/techno-hippies/heaven-sessions/internal/repositories"
	"github.com/techno-hippies/heaven-sessions/internal/ton"
	"go.uber.org/zap"
)

const proofPayloadTTL = 10 * time.Minute

type AuthHandler struct {
	proofRepo *repositories.ProofRepo
	cfg       *config.Config
	log       *zap.Logger
}

func NewAuthHandler(proofRepo *repositories.ProofRepo, cfg *config.Config, log *zap.Logger) *AuthHandler {
	return &AuthHandler{proofRepo: proofRepo, cfg: cfg, log: log}
}

// GeneratePayload issues a one-time nonce the wallet must sign into its
// ton_proof.
func (h *AuthHandler) GeneratePayload(c *fiber.Ctx) error {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal server error"})
	}
	payload := hex.EncodeToString(buf)

	if _, err := h.proofRepo.Create(c.Context(), payload, proofPayloadTTL); err != nil {
		h.log.Error("failed to store proof payload", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal server error"})
	}

	return c.JSON(dto.ProofPayloadResponse{Payload: payload})
}

// WalletAuth verifies a TON Connect proof over a previously issued payload
// and exchanges it for a JWT carrying the wallet address.
func (h *AuthHandler) WalletAuth(c *fiber.Ctx) error {
	var req dto.WalletAuthRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.Address == "" || req.PubKey == "" || req.Proof.Signature == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "address, public_key and proof are required"})
	}

	workchain, addrHash, err := ton.ParseRawAddress(req.Address)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	// Burn the nonce before verifying; a replayed payload fails here
	// regardless of signature validity.
	ok, err := h.proofRepo.Consume(c.Context(), req.Proof.Payload)
	if err != nil {
		h.log.Error("failed to consume proof payload", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal server error"})
	}
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "unknown or already used payload"})
	}

	proof := ton.Proof{
		Timestamp: req.Proof.Timestamp,
		Domain: ton.ProofDomain{
			LengthBytes: req.Proof.DomainLen,
			Value:       req.Proof.DomainVal,
		},
		Payload:   req.Proof.Payload,
		Signature: req.Proof.Signature,
	}
	if err := ton.VerifyProof(req.PubKey, addrHash, workchain, proof, h.cfg.TONProofAllowedDomains); err != nil {
		h.log.Debug("ton proof verification failed", zap.Error(err))
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	token, err := auth.GenerateJWT(h.cfg.JWTSecret, req.Address, h.cfg.JWTExpiration)
	if err != nil {
		h.log.Error("failed to generate jwt", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal server error"})
	}

	return c.JSON(dto.AuthResponse{Token: token, Address: req.Address})
}
