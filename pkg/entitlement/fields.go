package entitlement

// Field names used in store patches. They match the bson tags on Record so
// both the mongo store and the in-memory store interpret patches uniformly.
const (
	FieldIsPremium          = "isPremium"
	FieldPremiumExpiry      = "premiumExpiry"
	FieldSubscriptionID     = "subscriptionId"
	FieldSubscriptionStatus = "subscriptionStatus"
	FieldPaymentType        = "paymentType"
	FieldHasEverBeenPremium = "hasEverBeenPremium"
	FieldTrialCount         = "trialCount"
	FieldLastTrialStartDate = "lastTrialStartDate"
	FieldTrialCancelledDate = "trialCancelledDate"
	FieldCancellationReason = "cancellationReason"
	FieldNextRenewalDate    = "nextRenewalDate"

	FieldRefundAttemptDate = "refundAttemptDate"
	FieldRefundAmount      = "refundAmount"
	FieldRefundStatus      = "refundStatus"
	FieldRefundReason      = "refundReason"

	FieldUsage                       = "usage"
	FieldUsageLastReset              = "usageLastReset"
	FieldWorkspaceUsage              = "workspaceUsage"
	FieldWorkspaceUsageLastReset     = "workspaceUsageLastReset"
	FieldShareUsage                  = "shareUsage"
	FieldShareUsageLastReset         = "shareUsageLastReset"
	FieldImageAnalysisUsage          = "imageAnalysisUsage"
	FieldImageAnalysisUsageLastReset = "imageAnalysisUsageLastReset"

	FieldVersion = "version"
)
