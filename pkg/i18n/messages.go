package i18n

// Key identifies a shopper-facing message.
type Key string

const (
	MsgInvalidCredentials   Key = "auth.invalid_credentials"
	MsgAdminBlocked         Key = "auth.admin_blocked"
	MsgAuthRequired         Key = "auth.required"
	MsgOAuthFailed          Key = "auth.oauth_failed"
	MsgPhoneRequired        Key = "checkout.phone_required"
	MsgAddressRequired      Key = "checkout.address_required"
	MsgCartEmpty            Key = "checkout.cart_empty"
	MsgFeeUnavailable       Key = "checkout.fee_unavailable"
	MsgFeeStale             Key = "checkout.fee_stale"
	MsgOrderCreateFailed    Key = "checkout.order_create_failed"
	MsgPaymentInitFailed    Key = "payment.init_failed"
	MsgPaymentStatusFailed  Key = "payment.status_failed"
	MsgPaymentCancelTooSoon Key = "payment.cancel_unavailable"
	MsgPaymentNotTracked    Key = "payment.not_tracked"
	MsgAddressNotFound      Key = "address.not_found"
	MsgAddressNoCoordinates Key = "delivery.address_missing_coordinates"
	MsgBranchRequired       Key = "delivery.branch_required"
	MsgDeliveryFeeFailed    Key = "delivery.fee_failed"
	MsgOutOfRange           Key = "delivery.out_of_range"
	MsgGeocodingFailed      Key = "address.geocoding_failed"
	MsgBranchSwitchConfirm  Key = "cart.branch_switch_confirm"
	MsgBranchUnavailable    Key = "cart.branch_unavailable"
	MsgItemUnavailable      Key = "cart.item_unavailable"
	MsgItemNotInCart        Key = "cart.item_not_found"
	MsgTooManyAttempts      Key = "auth.too_many_attempts"
	MsgInvalidRequest       Key = "request.invalid"
	MsgBodyTooLarge         Key = "request.too_large"
	MsgRequestInProgress    Key = "request.in_progress"
	MsgIdempotencyKeyNeeded Key = "request.idempotency_key_required"
	MsgIdempotencyReused    Key = "request.idempotency_key_reused"

	// Field keys render with fmt verbs for the tag parameter.
	MsgFieldRequired Key = "field.required"
	MsgFieldMin      Key = "field.min"
	MsgFieldMax      Key = "field.max"
	MsgFieldEmail    Key = "field.email"
	MsgFieldOneOf    Key = "field.oneof"
	MsgFieldLocation Key = "field.location"
	MsgFieldInvalid  Key = "field.invalid"
)

var catalog = map[Key]map[Lang]string{
	MsgInvalidCredentials: {
		LangAR: "البريد الإلكتروني أو كلمة المرور غير صحيحة",
		LangEN: "Invalid email or password",
	},
	MsgAdminBlocked: {
		LangAR: "حسابات المسؤولين لا يمكنها الطلب من المتجر",
		LangEN: "Admin accounts cannot place storefront orders",
	},
	MsgAuthRequired: {
		LangAR: "يرجى تسجيل الدخول للمتابعة",
		LangEN: "Please sign in to continue",
	},
	MsgOAuthFailed: {
		LangAR: "تعذر تسجيل الدخول عبر الحساب الاجتماعي",
		LangEN: "Social sign-in failed",
	},
	MsgPhoneRequired: {
		LangAR: "يرجى إضافة رقم الهاتف قبل إتمام الطلب",
		LangEN: "Please add a phone number before placing the order",
	},
	MsgAddressRequired: {
		LangAR: "يرجى اختيار عنوان التوصيل",
		LangEN: "Please select a delivery address",
	},
	MsgCartEmpty: {
		LangAR: "سلة التسوق فارغة",
		LangEN: "Your cart is empty",
	},
	MsgFeeUnavailable: {
		LangAR: "لم يتم حساب رسوم التوصيل بعد",
		LangEN: "The delivery fee has not been calculated yet",
	},
	MsgFeeStale: {
		LangAR: "تغيرت بيانات الطلب، يرجى إعادة حساب رسوم التوصيل",
		LangEN: "Your order changed, please recalculate the delivery fee",
	},
	MsgOrderCreateFailed: {
		LangAR: "تعذر إنشاء الطلب، حاول مرة أخرى",
		LangEN: "Could not create the order, please try again",
	},
	MsgPaymentInitFailed: {
		LangAR: "تعذر بدء عملية الدفع، حاول مرة أخرى",
		LangEN: "Could not start the payment, please try again",
	},
	MsgPaymentStatusFailed: {
		LangAR: "تعذر التحقق من حالة الدفع",
		LangEN: "Could not check the payment status",
	},
	MsgPaymentCancelTooSoon: {
		LangAR: "لا يمكن إلغاء الدفع الآن",
		LangEN: "The payment cannot be cancelled yet",
	},
	MsgPaymentNotTracked: {
		LangAR: "جاري تحميل تفاصيل الطلب",
		LangEN: "Loading order details",
	},
	MsgAddressNotFound: {
		LangAR: "العنوان غير موجود",
		LangEN: "Address not found",
	},
	MsgAddressNoCoordinates: {
		LangAR: "العنوان المختار لا يحتوي على موقع على الخريطة",
		LangEN: "The selected address has no map location",
	},
	MsgBranchRequired: {
		LangAR: "يرجى اختيار الفرع وإضافة منتجات للسلة",
		LangEN: "Please choose a branch and add items to your cart",
	},
	MsgDeliveryFeeFailed: {
		LangAR: "تعذر حساب رسوم التوصيل",
		LangEN: "Could not calculate the delivery fee",
	},
	MsgOutOfRange: {
		LangAR: "العنوان خارج نطاق التوصيل",
		LangEN: "This address is outside our delivery area",
	},
	MsgGeocodingFailed: {
		LangAR: "تعذر تحديد موقع العنوان",
		LangEN: "Could not locate this address",
	},
	MsgBranchSwitchConfirm: {
		LangAR: "تغيير الفرع سيؤدي إلى إفراغ السلة",
		LangEN: "Switching branch will empty your cart",
	},
	MsgBranchUnavailable: {
		LangAR: "الفرع غير متاح حاليا",
		LangEN: "This branch is currently unavailable",
	},
	MsgItemUnavailable: {
		LangAR: "هذا المنتج غير متاح حاليا",
		LangEN: "This item is currently unavailable",
	},
	MsgItemNotInCart: {
		LangAR: "المنتج غير موجود في السلة",
		LangEN: "Item is not in your cart",
	},
	MsgTooManyAttempts: {
		LangAR: "محاولات كثيرة، يرجى المحاولة لاحقا",
		LangEN: "Too many attempts, please try again later",
	},
	MsgInvalidRequest: {
		LangAR: "يرجى مراجعة البيانات المدخلة",
		LangEN: "Please check the submitted details",
	},
	MsgBodyTooLarge: {
		LangAR: "حجم الطلب أكبر من المسموح",
		LangEN: "The request is too large",
	},
	MsgRequestInProgress: {
		LangAR: "طلبك قيد التنفيذ، يرجى الانتظار",
		LangEN: "Your request is still being processed",
	},
	MsgIdempotencyKeyNeeded: {
		LangAR: "مفتاح منع تكرار الطلب مطلوب",
		LangEN: "Idempotency-Key header required",
	},
	MsgIdempotencyReused: {
		LangAR: "تم استخدام نفس الطلب ببيانات مختلفة",
		LangEN: "Idempotency key reused with a different request",
	},
	MsgFieldRequired: {
		LangAR: "هذا الحقل مطلوب",
		LangEN: "is required",
	},
	MsgFieldMin: {
		LangAR: "يجب ألا يقل عن %s",
		LangEN: "must be at least %s",
	},
	MsgFieldMax: {
		LangAR: "يجب ألا يزيد عن %s",
		LangEN: "must be at most %s",
	},
	MsgFieldEmail: {
		LangAR: "البريد الإلكتروني غير صالح",
		LangEN: "must be a valid email",
	},
	MsgFieldOneOf: {
		LangAR: "يجب أن يكون أحد: %s",
		LangEN: "must be one of: %s",
	},
	MsgFieldLocation: {
		LangAR: "الموقع على الخريطة غير صالح",
		LangEN: "must be a valid map coordinate",
	},
	MsgFieldInvalid: {
		LangAR: "القيمة غير صالحة",
		LangEN: "is invalid",
	},
}

// Message renders key in lang. Unknown keys render as themselves.
func Message(lang Lang, key Key) string {
	entry, ok := catalog[key]
	if !ok {
		return string(key)
	}
	if msg, ok := entry[lang]; ok {
		return msg
	}
	return entry[LangEN]
}

// Known reports whether key has catalog entries.
func Known(key Key) bool {
	_, ok := catalog[key]
	return ok
}
