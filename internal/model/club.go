package model

// ClubMember carries the club-level credit rule inputs for the buy-in
// workflow.  A negative CreditLimit means unlimited credit.  Owners,
// managers and members flagged for auto approval bypass the credit check
// entirely.
type ClubMember struct {
    ClubCode          string // club_members.club_code
    PlayerUUID        string // club_members.player_uuid
    CreditLimit       int64  // club_members.credit_limit (-1 = unlimited)
    IsOwner           bool   // club_members.is_owner
    IsManager         bool   // club_members.is_manager
    AutoBuyinApproval bool   // club_members.auto_buyin_approval
}
